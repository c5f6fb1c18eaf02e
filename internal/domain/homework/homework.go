// internal/domain/homework/homework.go
package homework

import (
	"errors"
	"fmt"
)

// Status is the review state of a submitted homework.
type Status string

const (
	StatusApproved  Status = "approved"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
)

// Verdicts maps each known status to its human-readable verdict text.
var Verdicts = map[Status]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

var (
	// ErrNotAMapping is returned when a payload or record that must be a
	// JSON object decodes to something else.
	ErrNotAMapping = errors.New("ответ не является словарем")

	// ErrMissingHomeworksKey is returned when the envelope has no "homeworks" key.
	ErrMissingHomeworksKey = errors.New("ключа homeworks нет в словаре")

	// ErrHomeworksNotAList is returned when the "homeworks" value is not a JSON array.
	ErrHomeworksNotAList = errors.New("домашние работы не являются списком")

	// ErrMissingStatusKey is returned when a homework record has no "status" key.
	ErrMissingStatusKey = errors.New("ключа status нет в словаре")
)

// UnexpectedStatusError reports a status value outside the known enumeration.
type UnexpectedStatusError struct {
	Status string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("неожиданный статус домашней работы: %q", e.Status)
}

// CheckResponse validates the shape of a decoded API envelope and returns
// the homework sequence it carries. The payload is the raw decoded JSON
// value; nothing about its shape is trusted.
func CheckResponse(payload any) ([]any, error) {
	envelope, ok := payload.(map[string]any)
	if !ok {
		return nil, ErrNotAMapping
	}
	rawHomeworks, ok := envelope["homeworks"]
	if !ok {
		return nil, ErrMissingHomeworksKey
	}
	homeworks, ok := rawHomeworks.([]any)
	if !ok {
		return nil, ErrHomeworksNotAList
	}
	return homeworks, nil
}

// RecordStatus extracts the review status from a single homework record.
func RecordStatus(record any) (Status, error) {
	rec, isMap := record.(map[string]any)
	rawStatus, ok := rec["status"] // indexing a nil map is safe
	if !ok {
		return "", ErrMissingStatusKey
	}
	if !isMap {
		return "", ErrNotAMapping
	}
	status, ok := rawStatus.(string)
	if !ok {
		return "", &UnexpectedStatusError{Status: fmt.Sprintf("%v", rawStatus)}
	}
	return Status(status), nil
}

// ParseStatus translates a homework record into the notification sentence,
// combining the homework name with the verdict for its status.
func ParseStatus(record any) (string, error) {
	status, err := RecordStatus(record)
	if err != nil {
		return "", err
	}
	verdict, ok := Verdicts[status]
	if !ok {
		return "", &UnexpectedStatusError{Status: string(status)}
	}
	rec, _ := record.(map[string]any)
	name, _ := rec["homework_name"].(string)
	return fmt.Sprintf("Изменился статус проверки работы %q. %s", name, verdict), nil
}
