package types

const ContextUserKey = "user"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// Brand roles
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Creator pipeline statuses
const (
	CreatorStatusNewSubmission   = "New Creator Submission"
	CreatorStatusColdOutreach    = "Cold Outreach"
	CreatorStatusPrimaryScreen   = "Primary Screen"
	CreatorStatusBacklog         = "Backlog"
	CreatorStatusApprovedNext    = "Approved for Next Steps"
	CreatorStatusScheduleCall    = "Schedule Call"
	CreatorStatusCallScheduled   = "Call Scheduled"
	CreatorStatusReadyForScripts = "READY FOR SCRIPTS"
	CreatorStatusRejected        = "Rejected"
)

var CreatorStatuses = []string{
	CreatorStatusNewSubmission,
	CreatorStatusColdOutreach,
	CreatorStatusPrimaryScreen,
	CreatorStatusBacklog,
	CreatorStatusApprovedNext,
	CreatorStatusScheduleCall,
	CreatorStatusCallScheduled,
	CreatorStatusReadyForScripts,
	CreatorStatusRejected,
}

// Creator contract statuses
const (
	ContractStatusNotSigned = "not signed"
	ContractStatusSent      = "contract sent"
	ContractStatusSigned    = "contract signed"
)

// Script statuses
const (
	ScriptStatusPendingApproval          = "PENDING_APPROVAL"
	ScriptStatusRevisionRequested        = "REVISION_REQUESTED"
	ScriptStatusApproved                 = "APPROVED"
	ScriptStatusCreatorReassignment      = "CREATOR_REASSIGNMENT"
	ScriptStatusAssigned                 = "SCRIPT_ASSIGNED"
	ScriptStatusCreatorApproved          = "CREATOR_APPROVED"
	ScriptStatusContentSubmitted         = "CONTENT_SUBMITTED"
	ScriptStatusContentRevisionRequested = "CONTENT_REVISION_REQUESTED"
	ScriptStatusFinalApproved            = "FINAL_APPROVED"
)

var ScriptStatuses = []string{
	ScriptStatusPendingApproval,
	ScriptStatusRevisionRequested,
	ScriptStatusApproved,
	ScriptStatusCreatorReassignment,
	ScriptStatusAssigned,
	ScriptStatusCreatorApproved,
	ScriptStatusContentSubmitted,
	ScriptStatusContentRevisionRequested,
	ScriptStatusFinalApproved,
}

// E-sign contract statuses
const (
	ESignDraft           = "draft"
	ESignSent            = "sent"
	ESignPartiallySigned = "partially_signed"
	ESignCompleted       = "completed"
	ESignVoided          = "voided"
)

// Contract recipient statuses
const (
	RecipientPending = "pending"
	RecipientSigned  = "signed"
)

// Contract audit actions
const (
	AuditCreated   = "created"
	AuditSent      = "sent"
	AuditViewed    = "viewed"
	AuditSigned    = "signed"
	AuditCompleted = "completed"
	AuditVoided    = "voided"
)

// Ad draft statuses
const (
	AdDraftDraft     = "draft"
	AdDraftReady     = "ready"
	AdDraftUploading = "uploading"
	AdDraftUploaded  = "uploaded"
	AdDraftError     = "error"
)

// Ad asset types
const (
	AssetImage = "image"
	AssetVideo = "video"
)

// OneSheet statuses
const (
	OneSheetDraft      = "draft"
	OneSheetInProgress = "in_progress"
	OneSheetComplete   = "complete"
)

// Workflow execution statuses
const (
	ExecutionRunning  = "running"
	ExecutionSuccess  = "success"
	ExecutionFailed   = "failed"
	ExecutionTimedOut = "timed_out"
)

// Notification channels and outcomes
const (
	ChannelSlack = "slack"
	ChannelEmail = "email"

	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification events
const (
	EventCreatorApplied       = "creator_applied"
	EventCreatorStatusChanged = "creator_status_changed"
	EventScriptStatusChanged  = "script_status_changed"
	EventContractSent         = "contract_sent"
	EventContractCompleted    = "contract_completed"
	EventAdBatchLaunched      = "ad_batch_launched"
	EventCreatorEmail         = "creator_email"
	EventSlackTest            = "slack_test"
)

// Coordinator action types and statuses
const (
	ActionSendEmail    = "send_email"
	ActionUpdateStatus = "update_status"
	ActionAssignScript = "assign_script"
	ActionFollowUp     = "follow_up"

	ActionPending   = "pending"
	ActionExecuted  = "executed"
	ActionDismissed = "dismissed"
)

// Scorecard metric directions and statuses
const (
	HigherIsBetter = "higher_is_better"
	LowerIsBetter  = "lower_is_better"

	ScoreOnTrack  = "on_track"
	ScoreOffTrack = "off_track"
	ScoreNoData   = "no_data"
)

// MetaInsightFields lists the account-level insight fields a scorecard metric may track.
var MetaInsightFields = []string{
	"spend", "impressions", "clicks", "ctr", "cpc", "cpm",
	"purchases", "purchase_roas", "cost_per_purchase",
}
