package metrics

import (
	"path"

	"github.com/goliatone/go-router"
)

// Instrument wraps r so every route registered through it is measured with
// Collector.Route, labelled by its pattern.
func Instrument[T any](r router.Router[T], c *Collector) router.Router[T] {
	return &instrumented[T]{Router: r, collector: c}
}

type instrumented[T any] struct {
	router.Router[T]
	collector *Collector
	prefix    string
}

func (r *instrumented[T]) Handle(method router.HTTPMethod, pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	full := path.Join("/", r.prefix, pattern)
	chain := append([]router.MiddlewareFunc{r.collector.Route(string(method), full)}, mw...)
	return r.Router.Handle(method, pattern, handler, chain...)
}

func (r *instrumented[T]) Get(pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.Handle(router.GET, pattern, handler, mw...)
}

func (r *instrumented[T]) Post(pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.Handle(router.POST, pattern, handler, mw...)
}

func (r *instrumented[T]) Put(pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.Handle(router.PUT, pattern, handler, mw...)
}

func (r *instrumented[T]) Delete(pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.Handle(router.DELETE, pattern, handler, mw...)
}

func (r *instrumented[T]) Patch(pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.Handle(router.PATCH, pattern, handler, mw...)
}

func (r *instrumented[T]) Head(pattern string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return r.Handle(router.HEAD, pattern, handler, mw...)
}

func (r *instrumented[T]) Group(prefix string) router.Router[T] {
	return &instrumented[T]{
		Router:    r.Router.Group(prefix),
		collector: r.collector,
		prefix:    path.Join(r.prefix, prefix),
	}
}

func (r *instrumented[T]) WithGroup(prefix string, cb func(router.Router[T])) router.Router[T] {
	cb(r.Group(prefix))
	return r
}

func (r *instrumented[T]) Use(m ...router.MiddlewareFunc) router.Router[T] {
	r.Router.Use(m...)
	return r
}
