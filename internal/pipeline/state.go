package pipeline

// State состояние прогона
type State string

const (
	StateIdle         State = "Idle"
	StateInitializing State = "Initializing"
	StateStreaming    State = "Streaming"
	StateFinalizing   State = "Finalizing"
	StateCompleted    State = "Completed"
	StateFailed       State = "Failed"
	StateCancelled    State = "Cancelled"
)

// IsTerminal сообщает, что из состояния нет переходов
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

var transitions = map[State][]State{
	StateIdle:         {StateInitializing},
	StateInitializing: {StateStreaming},
	StateStreaming:    {StateFinalizing},
	StateFinalizing:   {StateCompleted},
}

// canTransition проверяет допустимость перехода. Failed и Cancelled достижимы
// из любого нетерминального состояния.
func canTransition(from, to State) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed || to == StateCancelled {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
