package querycache

import "context"

// GetData returns the value of key when it is cached and holds a T.
func GetData[T any](c *Cache, key Key) (T, bool) {
	var zero T
	e, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := e.Data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// SetData stores v as the fresh value of key.
func SetData[T any](c *Cache, key Key, v T) { c.Set(key, v) }

// UpdateData rewrites the value of key with fn. Absent keys and values of
// another type are left alone.
func UpdateData[T any](c *Cache, key Key, fn func(T) T) bool {
	return c.Update(key, func(old any, ok bool) (any, bool) {
		if !ok {
			return nil, false
		}
		v, ok := old.(T)
		if !ok {
			return nil, false
		}
		return fn(v), true
	})
}

// UpsertData writes fn(old, ok) to key whether or not it is cached.
func UpsertData[T any](c *Cache, key Key, fn func(old T, ok bool) T) {
	c.Update(key, func(old any, ok bool) (any, bool) {
		v, typed := old.(T)
		return fn(v, ok && typed), true
	})
}

// FetchData is Fetch for a loader returning T.
func FetchData[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, nil
	}
	return out, nil
}
