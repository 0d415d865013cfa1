package models

import (
	"fmt"
	"strconv"
	"strings"
)

// StateKind is the persisted tag of a ConversationState.
type StateKind string

const (
	StateNone              StateKind = "NONE"
	StateQAFlow            StateKind = "QA_FLOW"
	StateQuestionsUpdate   StateKind = "QUESTIONS_UPDATE"
	StateParticipantSelect StateKind = "PARTICIPANT_SELECT"
)

// ConversationState is what a user is in the middle of. Exactly one of
// NoState, QAFlow, QuestionsUpdate or ParticipantSelect.
type ConversationState interface {
	Kind() StateKind
	record() StateRecord
}

// NoState means no flow is open.
type NoState struct{}

// QAFlow walks the flat question sequence of SessionID; Cursor is the flat
// index of the question awaiting an answer and QuestionID the question that
// was asked there.
type QAFlow struct {
	SessionID  uint
	Cursor     int
	QuestionID uint
}

// QuestionsUpdate waits for the new catalog text of SessionID.
type QuestionsUpdate struct {
	SessionID uint
}

// ParticipantSelect waits for a selector token; Payload names the pending
// admin action and Page is the page shown last.
type ParticipantSelect struct {
	Payload string
	Page    int
}

func (NoState) Kind() StateKind           { return StateNone }
func (QAFlow) Kind() StateKind            { return StateQAFlow }
func (QuestionsUpdate) Kind() StateKind   { return StateQuestionsUpdate }
func (ParticipantSelect) Kind() StateKind { return StateParticipantSelect }

func (NoState) record() StateRecord {
	return StateRecord{Kind: StateNone}
}

func (s QAFlow) record() StateRecord {
	id, qid := s.SessionID, s.QuestionID
	return StateRecord{Kind: StateQAFlow, SessionID: &id, Cursor: s.Cursor, QuestionID: &qid}
}

func (s QuestionsUpdate) record() StateRecord {
	id := s.SessionID
	return StateRecord{Kind: StateQuestionsUpdate, SessionID: &id}
}

func (s ParticipantSelect) record() StateRecord {
	return StateRecord{Kind: StateParticipantSelect, Cursor: s.Page, Payload: s.Payload}
}

// StateRecord is the column form of a ConversationState. Build it with
// EncodeState and read it back with Decode; never fill it by hand.
type StateRecord struct {
	Kind      StateKind `gorm:"size:32;not null;default:'NONE'"`
	SessionID  *uint
	Cursor     int    `gorm:"not null;default:0"`
	QuestionID *uint
	Payload    string `gorm:"size:64"`
}

// EncodeState converts s into its column form. A nil state encodes as NoState.
func EncodeState(s ConversationState) StateRecord {
	if s == nil {
		return NoState{}.record()
	}
	return s.record()
}

// Decode converts the columns back into a ConversationState.
func (r StateRecord) Decode() (ConversationState, error) {
	switch r.Kind {
	case StateNone, "":
		return NoState{}, nil
	case StateQAFlow:
		if r.SessionID == nil {
			return NoState{}, fmt.Errorf("state %s without session", r.Kind)
		}
		flow := QAFlow{SessionID: *r.SessionID, Cursor: r.Cursor}
		if r.QuestionID != nil {
			flow.QuestionID = *r.QuestionID
		}
		return flow, nil
	case StateQuestionsUpdate:
		if r.SessionID == nil {
			return NoState{}, fmt.Errorf("state %s without session", r.Kind)
		}
		return QuestionsUpdate{SessionID: *r.SessionID}, nil
	case StateParticipantSelect:
		if r.Payload == "" {
			return NoState{}, fmt.Errorf("state %s without payload", r.Kind)
		}
		return ParticipantSelect{Payload: r.Payload, Page: r.Cursor}, nil
	default:
		return NoState{}, fmt.Errorf("unknown state kind %q", r.Kind)
	}
}

// Pending admin actions carried by ParticipantSelect.
const (
	PayloadPromote = "PROMOTE"
	PayloadBan     = "BAN"
	PayloadUnban   = "UNBAN"

	lastPayloadPrefix = "LAST:"
)

// LastPayload tags a request to view n sessions of a participant's journals.
func LastPayload(n int) string {
	return lastPayloadPrefix + strconv.Itoa(n)
}

// ParseLastPayload returns n for a payload built by LastPayload.
func ParseLastPayload(payload string) (int, bool) {
	if !strings.HasPrefix(payload, lastPayloadPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(payload, lastPayloadPrefix))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
