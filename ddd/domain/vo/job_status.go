package vo

// JobStatus 作业状态
type JobStatus string

const (
	// JobStatusQueued 已入队
	JobStatusQueued JobStatus = "queued"
	// JobStatusRunning 执行中
	JobStatusRunning JobStatus = "running"
	// JobStatusSucceeded 已成功
	JobStatusSucceeded JobStatus = "succeeded"
	// JobStatusFailed 失败
	JobStatusFailed JobStatus = "failed"
	// JobStatusCanceled 已取消
	JobStatusCanceled JobStatus = "canceled"
)

// IsValid 检查状态是否有效
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusSucceeded, JobStatusFailed, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal 检查是否为最终状态
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCanceled
}

// CanTransitionTo 检查是否可以转换到目标状态
//
// Transitions are monotonic: queued -> running -> terminal. No terminal
// status transitions anywhere, and a job never goes back to queued.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusQueued:
		return target == JobStatusRunning || target == JobStatusCanceled
	case JobStatusRunning:
		return target == JobStatusSucceeded || target == JobStatusFailed
	default:
		return false
	}
}
