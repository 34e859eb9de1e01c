package telegram

import "sync"

// PendingInput marks a member whose next plain-text message should be
// consumed as the free-text answer to a screening question. It is ephemeral:
// a restart loses it and the member simply re-triggers the question, since
// the durable session state recovers the question pointer.
type PendingInput struct {
	SessionID  uint
	QuestionID uint
}

type InputRegister struct {
	mu      sync.Mutex
	pending map[int64]PendingInput
}

func NewInputRegister() *InputRegister {
	return &InputRegister{pending: make(map[int64]PendingInput)}
}

func (r *InputRegister) Await(userID int64, sessionID, questionID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[userID] = PendingInput{SessionID: sessionID, QuestionID: questionID}
}

func (r *InputRegister) Peek(userID int64) (PendingInput, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[userID]
	return p, ok
}

// Take returns and clears the marker, so each pending input is consumed at
// most once.
func (r *InputRegister) Take(userID int64) (PendingInput, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[userID]
	if ok {
		delete(r.pending, userID)
	}
	return p, ok
}

func (r *InputRegister) Clear(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, userID)
}
