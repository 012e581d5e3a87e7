package types

// ApplicationState 宿主生命周期状态
type ApplicationState string

const (
	// ApplicationCreated 已构建，尚未启动
	ApplicationCreated ApplicationState = "created"
	// ApplicationStarted 所有 Feature 已启动
	ApplicationStarted ApplicationState = "started"
	// ApplicationStopping 正在停止
	ApplicationStopping ApplicationState = "stopping"
	// ApplicationStopped 已停止
	ApplicationStopped ApplicationState = "stopped"
)

// String 实现 fmt.Stringer
func (s ApplicationState) String() string { return string(s) }
