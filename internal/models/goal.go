package models

// BudgetGoal is the target spend of a category in a month.
type BudgetGoal struct {
	OwnerID      int64  `json:"owner_id"`
	Category     string `json:"category"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
	TargetAmount Cents  `json:"target_amount"`
}

// GoalProgress compares a goal with the actual spend.
type GoalProgress struct {
	Category string  `json:"category"`
	Target   Cents   `json:"target"`
	Spent    Cents   `json:"spent"`
	Balance  Cents   `json:"balance"`  // Target - Spent, negative when over budget
	Progress float64 `json:"progress"` // Spent / Target, clipped to [0, 1]
}
