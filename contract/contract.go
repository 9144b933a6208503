//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"streamchat/domain"
	"streamchat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself; the supervisor owns panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker
// for logging and supervision, avoiding a manual naming method.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the fan-out of room events. Delivery is
// best-effort: a failing sink is logged, never retried.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Directory is the external identity/authorization collaborator.
// Moderator membership inside a room is authoritative once seeded;
// follower and subscriber checks are always delegated.
type Directory interface {
	IsModerator(userID, roomID string) bool
	IsFollower(userID, hostID string) bool
	IsSubscriber(userID, hostID string) bool
}

// Classifier scores text for toxicity and spam. Implementations must be
// synchronous, side-effect-free and safe to cache by content hash.
type Classifier interface {
	Classify(text string) domain.Classification
}

// Screener turns raw text into an advisory moderation verdict. The
// bounded ctx is the availability guard: on timeout the caller commits
// the message as pending (fail-open).
type Screener interface {
	Screen(ctx context.Context, text string) (domain.Screening, error)
}

// Archive is the durable message log the ephemeral room state can be
// rebuilt from.
type Archive interface {
	Store(msg domain.Message) error
	List(roomID string, limit int) ([]domain.Message, error)
}
