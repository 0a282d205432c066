package events

import "github.com/stakeq/stakeq/internal/models"

// OnReminder is called after an admin sends a completion reminder to a
// stakeholder. A delivery channel (mail, chat) can hook in here; dispatch is
// best-effort and must not fail the request.
var OnReminder func(user models.User)

// OnAssignment is called after a user's assigned questionnaire is set or
// cleared (nil questionnaire means cleared).
var OnAssignment func(user models.User, questionnaire *models.Questionnaire)
