package orm

import (
	"context"
	"time"
)

// OperationType represents different types of database operations
type OperationType string

const (
	OpCreate     OperationType = "create"
	OpUpdateMany OperationType = "update_many"
	OpDelete     OperationType = "delete"
	OpDeleteMany OperationType = "delete_many"
	OpFind       OperationType = "find"
	OpQuery      OperationType = "query"
	OpCheck      OperationType = "check"
)

// MiddlewareContext contains information passed to middleware
type MiddlewareContext struct {
	Operation    OperationType
	TableName    string
	Record       interface{}
	QueryBuilder interface{} // squirrel.SelectBuilder, squirrel.InsertBuilder, etc.
	Query        string
	Args         []interface{}
	Error        error
	StartTime    time.Time
	Duration     time.Duration
	Context      context.Context
}

// QueryMiddlewareFunc represents middleware that can modify queries
type QueryMiddlewareFunc func(ctx *MiddlewareContext) error

// QueryMiddleware represents middleware that can see and modify query builders
type QueryMiddleware func(next QueryMiddlewareFunc) QueryMiddlewareFunc

// middlewareManager manages database middleware
type middlewareManager struct {
	middleware []QueryMiddleware
}

func (mm *middlewareManager) add(middleware QueryMiddleware) *middlewareManager {
	next := &middlewareManager{middleware: make([]QueryMiddleware, 0, len(mm.middleware)+1)}
	next.middleware = append(next.middleware, mm.middleware...)
	next.middleware = append(next.middleware, middleware)
	return next
}

func (mm *middlewareManager) execute(ctx *MiddlewareContext, finalFunc QueryMiddlewareFunc) error {
	handler := finalFunc

	for i := len(mm.middleware) - 1; i >= 0; i-- {
		handler = mm.middleware[i](handler)
	}

	return handler(ctx)
}

func (r *Repository[T]) executeQueryMiddleware(op OperationType, ctx context.Context, record interface{}, queryBuilder interface{}, finalFunc QueryMiddlewareFunc) error {
	middlewareCtx := &MiddlewareContext{
		Operation:    op,
		TableName:    r.table.Name,
		Record:       record,
		QueryBuilder: queryBuilder,
		Context:      ctx,
		StartTime:    time.Now(),
	}

	if r.middleware == nil {
		return finalFunc(middlewareCtx)
	}
	return r.middleware.execute(middlewareCtx, finalFunc)
}

// Timing records the duration and outcome of each operation on the context
// before handing it to observe. Useful for logging.
func Timing(observe func(*MiddlewareContext)) QueryMiddleware {
	return func(next QueryMiddlewareFunc) QueryMiddlewareFunc {
		return func(ctx *MiddlewareContext) error {
			err := next(ctx)
			ctx.Duration = time.Since(ctx.StartTime)
			ctx.Error = err
			observe(ctx)
			return err
		}
	}
}
