package services

import (
	"log"

	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/events"
	"github.com/stakeq/stakeq/internal/models"
)

// SendReminder nudges a stakeholder to finish their assigned questionnaire.
// Delivery is a side channel: failures (or a missing hook) are logged and
// swallowed so the admin request that triggered the reminder still succeeds.
func SendReminder(g *gorm.DB, actorID *string, userID string) error {
	var u models.User
	if err := g.First(&u, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return NewNotFoundError("user not found")
		}
		return err
	}

	if events.OnReminder != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("reminder hook panicked for user %s: %v", u.ID, r)
				}
			}()
			events.OnReminder(u)
		}()
	} else {
		log.Printf("reminder for %s <%s> (no delivery channel configured)", u.Name, u.Email)
	}

	Audit(g, actorID, "reminder_sent", "User", u.ID, u.Email)
	return nil
}
