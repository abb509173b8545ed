// Command seed populates the database with demo circles, posts and threads.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"circles/internal/bootstrap"
	"circles/internal/config"
	"circles/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numMembers := flag.Int("members", defaults.NumMembers, "Number of fake members to generate")
	numCircles := flag.Int("circles", defaults.NumCircles, "Number of circles to create")
	postsPerCircle := flag.Int("posts", defaults.PostsPerCircle, "Posts per circle")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	maxDepth := flag.Int("depth", defaults.MaxDepth, "Maximum reply nesting")
	randomSeed := flag.Int64("rand", 0, "Random seed for reproducible data (0 uses the clock)")
	shouldClean := flag.Bool("clean", false, "Remove existing circles, posts and comments first")
	preset := flag.String("preset", "", "Apply a named preset instead of the count flags")
	presetFile := flag.String("preset-file", "", "YAML file with additional presets")
	listPresets := flag.Bool("list-presets", false, "Print the available presets and exit")
	flag.Parse()

	presets := seed.BuiltinPresets()
	if *presetFile != "" {
		f, err := os.Open(*presetFile)
		if err != nil {
			log.Fatalf("Failed to open preset file: %v", err)
		}
		extra, err := seed.LoadPresets(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("Failed to load preset file: %v", err)
		}
		for name, p := range extra {
			presets[name] = p
		}
	}
	if *listPresets {
		for _, name := range presets.Names() {
			p := presets[name]
			log.Printf("%-14s members=%d circles=%d posts=%d comments=%d depth=%d", name, p.Members, p.Circles, p.PostsPerCircle, p.CommentsPerPost, p.MaxDepth)
		}
		return
	}

	opts := seed.Options{
		NumMembers:      *numMembers,
		NumCircles:      *numCircles,
		PostsPerCircle:  *postsPerCircle,
		CommentsPerPost: *commentsPerPost,
		MaxDepth:        *maxDepth,
		LikeRatio:       defaults.LikeRatio,
		MaxDays:         defaults.MaxDays,
	}
	if *preset != "" {
		p, err := presets.Lookup(*preset)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Applying preset: %s (ignoring count flags)", *preset)
		opts = p.Options()
	}
	opts.ShouldClean = *shouldClean
	opts.RandomSeed = *randomSeed

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db, opts)
	res, err := s.Seed(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	// Built-ins go last so a clean run does not wipe them.
	if err := seed.BuiltIns(ctx, db); err != nil {
		log.Fatalf("Built-in circle seeding failed: %v", err)
	}

	log.Printf("Seeded %d members, %d circles, %d posts, %d comments, %d likes",
		res.Members, res.Circles, res.Posts, res.Comments, res.Likes)
}
