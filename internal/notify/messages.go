package notify

import (
	"fmt"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

func recipient(u *models.User) Message {
	return Message{To: u.Email, Phone: u.PhoneNumber}
}

// ActivationCode carries the code that activates a freshly registered account.
func ActivationCode(u *models.User, code string) Message {
	m := recipient(u)
	m.Subject = "Activate your account"
	m.Body = fmt.Sprintf("Hi %s, your activation code is %s", u.FirstName, code)
	return m
}

func PasswordResetCode(u *models.User, code string) Message {
	m := recipient(u)
	m.Subject = "Update password"
	m.Body = fmt.Sprintf("Hi %s, use %s to update your password", u.FirstName, code)
	return m
}

func AddedToTopic(u *models.User, t *models.Topic) Message {
	m := recipient(u)
	m.Subject = "You have been added to a topic"
	m.Body = fmt.Sprintf("Hi %s, you have been added to topic %s", u.FirstName, t.Name)
	return m
}
