package apperr

var (
	ErrUserNotFound    = NotFound("user not found")
	ErrDialogNotFound  = NotFound("dialog not found")
	ErrMessageNotFound = NotFound("message not found")
	ErrSessionNotFound = NotFound("session not found")

	ErrDialogExists    = AlreadyExists("dialog already exists")
	ErrSelfDialog      = InvalidArg("you can't add yourself to dialog")
	ErrSelfBlock       = InvalidArg("you can't block yourself")
	ErrPinLimit        = FailedPrecondition("you can't pin more than 10 dialogs")
	ErrBlocked         = Forbidden("user is blocked")
	ErrNotDialogMember = Forbidden("you are not a member of this dialog")

	ErrEmptyMessage = InvalidArg("message must contain text or a file")
)
