package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minumate/backend/core"
	"github.com/minumate/backend/core/meeting"
	"github.com/minumate/backend/core/task"
	"github.com/minumate/backend/services/analyzer"
)

type meetingApi struct {
	deps ServerDeps
}

func registerMeetingAdminAPI(g *echo.Group, deps ServerDeps) {
	api := meetingApi{deps: deps}

	mg := g.Group("/meetings")
	mg.GET("", api.query)
	mg.POST("", api.create)
	mg.GET("/unlinked", api.queryUnlinked)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update)
	mg.DELETE("/:id", api.destroy)
	mg.GET("/:id/projects", api.queryProjects)
	mg.POST("/:id/participants", api.addParticipant)
	mg.DELETE("/:id/participants/:userID", api.removeParticipant)
}

func registerUserDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := meetingApi{deps: deps}

	ug := g.Group("/user", jwt)
	ug.GET("/meetings", api.queryMine)
	ug.GET("/meetings/:id", api.retrieveMine)

	registerTaskAPI(ug, deps)
}

func registerAnalyzeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := meetingApi{deps: deps}
	g.POST("/analyze", api.analyze, jwt, adminMiddleware())
}

// Admin handlers

func (api *meetingApi) query(ctx echo.Context) error {
	meetings, err := api.deps.MeetingSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	return ctx.JSON(http.StatusOK, meetings)
}

func (api *meetingApi) create(ctx echo.Context) error {
	var data meeting.NewMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	mtg, err := api.deps.MeetingSvc.Create(data, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating meeting")
	}
	return ctx.JSON(http.StatusCreated, mtg)
}

func (api *meetingApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	mtg, err := api.deps.MeetingSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

func (api *meetingApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.deps.MeetingSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding meeting")
	}

	var data meeting.UpdateMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMeeting")
	}
	if err := data.Validate(orig, api.deps.Validate); err != nil {
		return err
	}

	mtg, err := api.deps.MeetingSvc.Update(id, data)
	if err != nil {
		return errors.Wrap(err, "updating meeting")
	}
	return ctx.JSON(http.StatusOK, mtg)
}

func (api *meetingApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.deps.MeetingSvc.GetByID(id); err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding meeting")
	}
	if err := api.deps.MeetingSvc.Delete(id); err != nil {
		return errors.Wrap(err, "deleting meeting")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *meetingApi) queryUnlinked(ctx echo.Context) error {
	meetings, err := api.deps.ProjectSvc.QueryUnlinkedMeetings()
	if err != nil {
		return errors.Wrap(err, "querying unlinked meetings")
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	return ctx.JSON(http.StatusOK, meetings)
}

func (api *meetingApi) queryProjects(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	projects, err := api.deps.ProjectSvc.QueryMeetingProjects(id)
	if err != nil {
		return errors.Wrap(err, "querying meeting projects")
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *meetingApi) addParticipant(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.deps.MeetingSvc.GetByID(id); err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding meeting")
	}

	var data meeting.AddParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddParticipant")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if err := api.deps.MeetingSvc.AddParticipant(id, data); err != nil {
		if errors.Cause(err) == meeting.ErrParticipantExists {
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "adding participant")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *meetingApi) removeParticipant(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := intParam(ctx, "userID")
	if err != nil {
		return err
	}
	if err := api.deps.MeetingSvc.RemoveParticipant(id, userID); err != nil {
		if errors.Cause(err) == meeting.ErrNotParticipant {
			return errHttpNotFound
		}
		return errors.Wrap(err, "removing participant")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// User dashboard handlers

func (api *meetingApi) queryMine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	meetings, err := api.deps.MeetingSvc.QueryForUser(ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying user meetings")
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	return ctx.JSON(http.StatusOK, meetings)
}

func (api *meetingApi) retrieveMine(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.deps.MeetingSvc.GetParticipant(id, ctxUsr.ID)
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotParticipant {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding participant")
	}
	mtg, err := api.deps.MeetingSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == meeting.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding meeting")
	}
	tasks, err := api.deps.TaskSvc.QueryByMeeting(id)
	if err != nil {
		return errors.Wrap(err, "querying meeting tasks")
	}
	mine := make([]task.Task, 0, len(tasks))
	for _, tsk := range tasks {
		if tsk.IsAssignedTo(ctxUsr.ID) {
			mine = append(mine, tsk)
		}
	}

	return ctx.JSON(http.StatusOK, UserMeetingResponse{Meeting: mtg, Role: p.Role, Tasks: mine})
}

// Analyze handler

func (api *meetingApi) analyze(ctx echo.Context) error {
	var data AnalyzeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnalyzeRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.deps.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	md := analyzer.MeetingData{
		Transcript:         data.Transcript,
		Title:              data.Title,
		Date:               data.Date,
		Duration:           data.Duration,
		Participants:       data.Participants,
		SuggestedEmailType: analyzer.EmailType(data.EmailType),
		MeetingType:        data.MeetingType,
	}
	sum, err := api.deps.AnalyzerSvc.Analyze(ctx.Request().Context(), &md)
	if err != nil {
		return errors.Wrap(err, "analyzing transcript")
	}

	mtg, err := api.deps.MeetingSvc.Create(meeting.NewMeeting{
		Title:      md.Title,
		Transcript: data.Transcript,
	}, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "creating meeting")
	}

	analysis, err := json.Marshal(sum)
	if err != nil {
		return errors.Wrap(err, "encoding analysis")
	}
	if mtg, err = api.deps.MeetingSvc.SetAnalysis(mtg.ID, analysis); err != nil {
		return errors.Wrap(err, "saving analysis")
	}

	// one pending task per action item, assigned later by recipient matching
	tasks := make([]task.Task, 0, len(sum.ActionItems))
	for _, item := range sum.ActionItems {
		tsk, err := api.deps.TaskSvc.Create(task.NewTask{
			MeetingID:     mtg.ID,
			Title:         item.Task,
			Description:   item.Priority,
			IntendedOwner: item.Owner,
		})
		if err != nil {
			return errors.Wrap(err, "creating task")
		}
		tasks = append(tasks, tsk)
	}

	recipients := make([]string, 0, len(md.Participants))
	for _, p := range md.Participants {
		recipients = append(recipients, p.Name)
	}
	et := md.SuggestedEmailType
	if et == "" {
		et = analyzer.EmailTeam
	}
	stakeholderEmail, err := api.deps.AnalyzerSvc.GenerateStakeholderEmail(ctx.Request().Context(), sum, et, recipients)
	if err != nil {
		return errors.Wrap(err, "generating stakeholder email")
	}

	emails := api.deps.AnalyzerSvc.GeneratePersonalizedEmails(sum, md)

	return ctx.JSON(http.StatusOK, AnalyzeResponse{
		MeetingID:        mtg.ID,
		Title:            md.Title,
		Summary:          sum,
		Tasks:            tasks,
		StakeholderEmail: stakeholderEmail,
		Emails:           emails,
	})
}

type (
	AnalyzeRequest struct {
		Transcript   string                `json:"transcript" validate:"required"`
		Title        string                `json:"title"`
		Date         string                `json:"date"`
		Duration     string                `json:"duration"`
		MeetingType  string                `json:"meeting_type"`
		EmailType    string                `json:"email_type"`
		Participants []analyzer.Participant `json:"participants"`
	}

	AnalyzeResponse struct {
		MeetingID        int                            `json:"meeting_id"`
		Title            string                         `json:"title"`
		Summary          analyzer.Summary               `json:"summary"`
		Tasks            []task.Task                    `json:"tasks"`
		StakeholderEmail string                         `json:"stakeholder_email"`
		Emails           map[string]analyzer.DraftEmail `json:"emails"`
	}

	UserMeetingResponse struct {
		Meeting meeting.Meeting `json:"meeting"`
		Role    string          `json:"role"`
		Tasks   []task.Task     `json:"tasks"`
	}
)

func (ar *AnalyzeRequest) Validate(validate *validator.Validate) error {
	ar.Title = core.CleanString(ar.Title)
	ar.MeetingType = core.CleanString(ar.MeetingType, true /* lower */)
	ar.EmailType = core.CleanString(ar.EmailType, true /* lower */)
	return validate.Struct(ar)
}
