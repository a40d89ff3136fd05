// Package trace records dispatch decisions made while a schedule-sim run executes.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// DispatchRecord captures one task handed from a scheduler to a child.
type DispatchRecord struct {
	Step        int64  `json:"step"`
	TaskID      int64  `json:"task_id"`
	TaskUnits   int    `json:"task_units"`
	SchedulerID int    `json:"scheduler_id"`
	TargetID    int    `json:"target_id"`
	Policy      string `json:"policy"`
	// ToConsumer is true when the target is a leaf consumer rather than a nested scheduler.
	ToConsumer bool `json:"to_consumer"`
}
