package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/booking-service/internal/api/dto"
	"github.com/spec-kit/booking-service/internal/auth"
	"github.com/spec-kit/booking-service/internal/domain"
	"github.com/spec-kit/booking-service/pkg/apperrors"
)

// staffPrincipal extracts the authenticated staff member, independent of the
// route-level role guards.
func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, apperrors.NewUnauthorized("staff account required")
	}
	return principal.Staff, nil
}

func appointmentSummary(appt *domain.Appointment) dto.AppointmentSummary {
	summary := dto.AppointmentSummary{
		ID:              appt.ID,
		CustomerID:      appt.CustomerID,
		Type:            appt.Type,
		ScheduledAt:     appt.ScheduledAt,
		Status:          appt.Status,
		AssignedStaffID: appt.AssignedStaffID,
		DispatchNote:    appt.DispatchNote,
		Acceptance: dto.AcceptancePayload{
			State:            appt.Acceptance.State,
			AcceptedAt:       appt.Acceptance.AcceptedAt,
			RescheduleReason: appt.Acceptance.RescheduleReason,
		},
		Description: appt.Description,
		Notes:       appt.Notes,
		CreatedAt:   appt.CreatedAt,
		UpdatedAt:   appt.UpdatedAt,
	}
	if appt.Cancellation != nil {
		summary.Cancellation = &dto.CancellationPayload{
			Reason:  appt.Cancellation.Reason,
			Message: appt.Cancellation.Message,
		}
	}
	if appt.SiteAddress != nil {
		summary.SiteAddress = siteAddressPayload(appt.SiteAddress)
	}
	return summary
}

func siteAddressPayload(addr *domain.SiteAddress) *dto.SiteAddressPayload {
	return &dto.SiteAddressPayload{
		Street:    addr.Street,
		Barangay:  addr.Barangay,
		City:      addr.City,
		Province:  addr.Province,
		Zip:       addr.Zip,
		Landmark:  addr.Landmark,
		Latitude:  addr.Latitude,
		Longitude: addr.Longitude,
	}
}

func siteAddressFromPayload(payload *dto.SiteAddressPayload) *domain.SiteAddress {
	if payload == nil {
		return nil
	}
	return &domain.SiteAddress{
		Street:    payload.Street,
		Barangay:  payload.Barangay,
		City:      payload.City,
		Province:  payload.Province,
		Zip:       payload.Zip,
		Landmark:  payload.Landmark,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
	}
}

func appointmentDetail(appt *domain.Appointment, trail []domain.AppointmentHistory, customer *domain.Customer) dto.AppointmentDetailResponse {
	detail := dto.AppointmentDetailResponse{
		AppointmentSummary: appointmentSummary(appt),
		History:            make([]dto.HistoryEntryResponse, 0, len(trail)),
	}
	if customer != nil {
		detail.Customer = &dto.CustomerResponse{
			ID:       customer.ID,
			FullName: customer.FullName(),
			Email:    customer.Email,
			Phone:    customer.Phone,
		}
	}
	for _, entry := range trail {
		detail.History = append(detail.History, dto.HistoryEntryResponse{
			ID:            entry.ID,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			ChangeType:    entry.ChangeType,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return detail
}

func appointmentSummaries(appts []domain.Appointment) []dto.AppointmentSummary {
	items := make([]dto.AppointmentSummary, 0, len(appts))
	for i := range appts {
		items = append(items, appointmentSummary(&appts[i]))
	}
	return items
}

func staffResponse(member *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:        member.ID,
		Name:      member.Name,
		Email:     member.Email,
		Phone:     member.Phone,
		Role:      member.Role,
		Active:    member.Active,
		CreatedAt: member.CreatedAt,
		UpdatedAt: member.UpdatedAt,
	}
}
