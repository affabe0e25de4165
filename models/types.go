package models

import "time"

// Poll status constants
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Outbound realtime events
const (
	EventStarted     = "poll:started"
	EventUpdate      = "poll:update"
	EventEnded       = "poll:ended"
	EventState       = "poll:state"
	EventVoteSuccess = "vote:success"
	EventVoteError   = "vote:error"
	EventError       = "error"
)

// Inbound realtime events
const (
	EventJoin      = "student:join"
	EventVote      = "student:vote"
	EventStartPoll = "teacher:start-poll"
	EventStopPoll  = "teacher:stop-poll"
)

// DefaultDuration is used when a creation request omits duration (seconds).
const DefaultDuration = 60

// Request types

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Duration *int     `json:"duration,omitempty"`
}

type SubmitVoteRequest struct {
	PollID      string `json:"pollId"`
	OptionIndex int    `json:"optionIndex"`
	StudentName string `json:"studentName"`
	SessionID   string `json:"sessionId"`
}

// PollCommand is the payload of teacher:start-poll and teacher:stop-poll.
type PollCommand struct {
	PollID   string `json:"pollId"`
	AdminKey string `json:"adminKey"`
}

// Response types

type CreatePollResponse struct {
	Poll     *Poll  `json:"poll"`
	AdminKey string `json:"admin_key"`
}

type ActivePollResponse struct {
	Poll          *Poll `json:"poll"`
	RemainingTime int   `json:"remainingTime"`
}

type VoteResult struct {
	Success bool  `json:"success"`
	Poll    *Poll `json:"poll"`
}

type HistoryEntry struct {
	Poll  *Poll  `json:"poll"`
	Total int    `json:"totalVotes"`
	Ended string `json:"ended,omitempty"` // e.g. "3 minutes ago"
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
}

// Domain types

type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	Options   []Option   `json:"options"`
	Duration  int        `json:"duration"` // seconds
	Status    string     `json:"status"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Clone returns a deep copy so snapshots handed to observers never alias
// state that is still being mutated.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = append([]Option(nil), p.Options...)
	c.StartTime = cloneTime(p.StartTime)
	c.EndTime = cloneTime(p.EndTime)
	c.ClosedAt = cloneTime(p.ClosedAt)
	return &c
}

// TotalVotes sums the per-option counters.
func (p *Poll) TotalVotes() int {
	n := 0
	for _, o := range p.Options {
		n += o.Votes
	}
	return n
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type Vote struct {
	PollID          string    `json:"pollId"`
	SessionID       string    `json:"-"`
	OptionIndex     int       `json:"optionIndex"`
	ParticipantName string    `json:"studentName"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Realtime types

// PollEvent is the payload of every poll:* event.
type PollEvent struct {
	Seq           uint64 `json:"seq"`
	Poll          *Poll  `json:"poll"`
	RemainingTime int    `json:"remainingTime"`
}

// Envelope is a single realtime frame in either direction.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// MessagePayload carries a human-readable message in error and
// vote:error frames.
type MessagePayload struct {
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
