package handler

type ContextKey string

var (
	RoleCtxKey     ContextKey = "role"
	SubCtxKey      ContextKey = "sub"
	JobPositionCtx ContextKey = "jobPosition"
	WorkflowCtx    ContextKey = "workflow"
)
