package events

// Event type constants, format: domain.action. These are the outbound
// contract with the notification/audit sink.

const (
	EventTypeSessionCreated         = "session.created"
	EventTypeSessionEnded           = "session.ended"
	EventTypeParticipantJoined      = "participant.joined"
	EventTypeParticipantLeft        = "participant.left"
	EventTypeParticipantApproved    = "participant.approved"
	EventTypeParticipantRoleChanged = "participant.role_changed"
	EventTypeVersionCreated         = "version.created"
	EventTypeVersionRestored        = "version.restored"
	EventTypeCommentAdded           = "comment.added"
	EventTypeCommentResolved        = "comment.resolved"
)

// Aggregate type constants
const (
	AggregateTypeSession     = "session"
	AggregateTypeParticipant = "participant"
	AggregateTypeVersion     = "version"
	AggregateTypeComment     = "comment"
)

// SinkChannel is the redis pub/sub channel the audit sink listens on.
const SinkChannel = "redline:events"
