package services

import (
	"log"

	"gorm.io/gorm"

	"github.com/stakeq/stakeq/internal/models"
)

// Audit records who did what to which object. Writing the trail is
// best-effort: a failed insert is logged and never fails the operation that
// triggered it.
func Audit(g *gorm.DB, actorID *string, action, objectType, objectID, note string) {
	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Note:       note,
	}
	if err := g.Create(&entry).Error; err != nil {
		log.Printf("audit write failed (%s %s/%s): %v", action, objectType, objectID, err)
	}
}
