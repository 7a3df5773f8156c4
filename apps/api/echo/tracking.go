package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minumate/backend/core"
	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/task"
	"github.com/minumate/backend/core/tracking"
)

// pixelImgFmt is appended to tracked HTML bodies; hits on the link are
// recorded as open events.
const pixelImgFmt = `<img src="%s/track/open/%s" width="1" height="1" style="display:none" alt="">`

type trackingApi struct {
	deps ServerDeps
}

func registerTrackingAPI(app *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := trackingApi{deps: deps}

	app.POST("/send_email", api.sendEmail)
	app.GET("/track/open/:trackingID", api.trackOpen)
	app.GET("/email_status/:trackingID", api.emailStatus)

	ag := app.Group("/admin/api", jwt, adminMiddleware())
	ag.GET("/emails", api.query)
	ag.GET("/email/:trackingID", api.retrieve)
	ag.DELETE("/cleanup/:days", api.cleanup)
}

func (api *trackingApi) sendEmail(ctx echo.Context) error {
	var data SendEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendEmailRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	trackingID := api.deps.TrackingSvc.NewTrackingID()

	content := data.Body
	if data.TrackingEnabled {
		content += fmt.Sprintf(pixelImgFmt, api.deps.Conf.PublicBaseURL, trackingID)
	}

	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: data.RecipientName, Address: data.RecipientEmail}},
		Subject:     data.Subject,
		HTMLContent: content,
	}
	status := tracking.StatusSent
	providerMessageID, sendErr := api.deps.TrackedSender.SendTracked(msg, data.TrackingEnabled)
	if sendErr != nil {
		status = tracking.StatusFailed
		api.deps.Logger.Error("sending tracked email", sendErr)
	}

	// provision the recipient so tasks can be claimed on registration
	usr, err := api.deps.UserSvc.CreateFromEmail(data.RecipientEmail, data.RecipientName)
	if err != nil {
		return errors.Wrap(err, "provisioning recipient")
	}

	var assigned []task.Task
	if data.MeetingID != nil {
		err = api.deps.MeetingSvc.AddParticipant(*data.MeetingID, meeting.AddParticipant{UserID: usr.ID})
		if !(err == nil || errors.Cause(err) == meeting.ErrParticipantExists) {
			return errors.Wrap(err, "adding participant")
		}
		if assigned, err = api.deps.TaskSvc.AssignIntendedTasks(*data.MeetingID, usr.ID, data.RecipientName); err != nil {
			return errors.Wrap(err, "assigning intended tasks")
		}
	}

	em, err := api.deps.TrackingSvc.Save(tracking.NewEmail{
		TrackingID:        trackingID,
		RecipientEmail:    data.RecipientEmail,
		RecipientName:     data.RecipientName,
		SenderEmail:       api.deps.Conf.DefaultFromEmail.Address,
		SenderName:        api.deps.Conf.DefaultFromEmail.Name,
		Subject:           data.Subject,
		Content:           content,
		TrackingEnabled:   data.TrackingEnabled,
		ProviderMessageID: providerMessageID,
		Status:            status,
		MeetingID:         data.MeetingID,
	})
	if err != nil {
		return errors.Wrap(err, "saving tracked email")
	}

	taskIDs := make([]int, 0, len(assigned))
	for _, tsk := range assigned {
		taskIDs = append(taskIDs, tsk.ID)
	}
	return ctx.JSON(http.StatusOK, SendEmailResponse{
		TrackingID:    em.TrackingID,
		Status:        em.Status,
		AssignedTasks: taskIDs,
	})
}

func (api *trackingApi) trackOpen(ctx echo.Context) error {
	trackingID := ctx.Param("trackingID")

	err := api.deps.TrackingSvc.RecordOpen(trackingID, ctx.RealIP(), ctx.Request().UserAgent())
	if !(err == nil || errors.Cause(err) == tracking.ErrNotFound) {
		// still serve the pixel; mail clients do not care about our problems
		api.deps.Logger.Error("recording open event", err)
	}
	return ctx.Blob(http.StatusOK, "image/png", tracking.Pixel())
}

func (api *trackingApi) emailStatus(ctx echo.Context) error {
	em, err := api.deps.TrackingSvc.GetByTrackingID(ctx.Param("trackingID"))
	if err != nil {
		if errors.Cause(err) == tracking.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding email")
	}
	return ctx.JSON(http.StatusOK, em)
}

func (api *trackingApi) query(ctx echo.Context) error {
	filter := new(tracking.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if err := filter.Validate(api.deps.Validate); err != nil {
		return err
	}

	page, err := api.deps.TrackingSvc.Query(*filter)
	if err != nil {
		return errors.Wrap(err, "querying emails")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *trackingApi) retrieve(ctx echo.Context) error {
	em, err := api.deps.TrackingSvc.GetByTrackingID(ctx.Param("trackingID"))
	if err != nil {
		if errors.Cause(err) == tracking.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding email")
	}
	return ctx.JSON(http.StatusOK, em)
}

func (api *trackingApi) cleanup(ctx echo.Context) error {
	days, err := intParam(ctx, "days")
	if err != nil {
		return err
	}
	deleted, err := api.deps.TrackingSvc.Cleanup(days)
	if err != nil {
		if errors.Cause(err) == tracking.ErrRetentionTooShort {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "cleaning up emails")
	}
	return ctx.JSON(http.StatusOK, CleanupResponse{Deleted: deleted})
}

type (
	SendEmailRequest struct {
		RecipientEmail  string `json:"recipient_email" validate:"required,email"`
		RecipientName   string `json:"recipient_name" validate:"required"`
		Subject         string `json:"subject" validate:"required"`
		Body            string `json:"body" validate:"required"`
		TrackingEnabled bool   `json:"tracking_enabled"`
		MeetingID       *int   `json:"meeting_id"`
	}

	SendEmailResponse struct {
		TrackingID    string `json:"tracking_id"`
		Status        string `json:"status"`
		AssignedTasks []int  `json:"assigned_tasks"`
	}

	CleanupResponse struct {
		Deleted int `json:"deleted"`
	}
)

func (sr *SendEmailRequest) Validate(validate *validator.Validate) error {
	sr.RecipientEmail = core.CleanString(sr.RecipientEmail, true /* lower */)
	sr.RecipientName = core.CleanString(sr.RecipientName)
	sr.Subject = core.CleanString(sr.Subject)
	return validate.Struct(sr)
}
