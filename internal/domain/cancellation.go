package domain

// CancellationReason enumerates the structured reason templates offered to
// the dispatcher when cancelling an appointment.
type CancellationReason string

const (
	CancelReasonSchedulingConflict CancellationReason = "SCHEDULING_CONFLICT"
	CancelReasonStaffUnavailable   CancellationReason = "STAFF_UNAVAILABLE"
	CancelReasonSiteConstraint     CancellationReason = "SITE_CONSTRAINT"
	CancelReasonCustom             CancellationReason = "CUSTOM"
)

var cancellationDefaults = map[CancellationReason]string{
	CancelReasonSchedulingConflict: "We are unable to keep this schedule due to a conflict. Please book a new slot at your convenience.",
	CancelReasonStaffUnavailable:   "The specialist assigned to your appointment is no longer available on this date.",
	CancelReasonSiteConstraint:     "Site or weather conditions prevent us from proceeding with the visit as scheduled.",
}

// Known reports whether the reason is one of the supported templates.
func (r CancellationReason) Known() bool {
	if r == CancelReasonCustom {
		return true
	}
	_, ok := cancellationDefaults[r]
	return ok
}

// DefaultMessage returns the customer-facing template text. CUSTOM has no
// default; the caller must supply a message.
func (r CancellationReason) DefaultMessage() string {
	return cancellationDefaults[r]
}
