package sessiongate

import "github.com/google/uuid"

// UserUUID parses the session subject as a UUID. Password and provisioned
// accounts carry deterministic UUID subjects; sessions minted from foreign
// tokens may not.
func UserUUID(session Session) (uuid.UUID, error) {
	if session == nil {
		return uuid.Nil, ErrUnableToFindSession
	}
	return uuid.Parse(session.GetUserID())
}

// HasUserUUID reports whether UserUUID will succeed.
func HasUserUUID(session Session) bool {
	_, err := UserUUID(session)
	return err == nil
}
