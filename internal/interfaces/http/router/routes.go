package router

import (
	"github.com/gin-gonic/gin"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/interfaces/http/handler"
	"github.com/investorcrm/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler mounted under the API prefix
type Handlers struct {
	System      *handler.SystemHandler
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Investor    *handler.InvestorHandler
	Contact     *handler.ContactHandler
	Activity    *handler.ActivityHandler
	Task        *handler.TaskHandler
	Meeting     *handler.MeetingHandler
	Network     *handler.NetworkHandler
	Preferences *handler.PreferencesHandler
	Audit       *handler.AuditHandler
	Integration *handler.IntegrationHandler
	Assistant   *handler.AssistantHandler
	Report      *handler.ReportHandler
	Realtime    *handler.RealtimeHandler
}

// Guards holds the middleware applied to groups of routes. Everything except Auth is optional.
type Guards struct {
	// Auth authenticates protected routes
	Auth gin.HandlerFunc
	// RealtimeAuth authenticates the websocket upgrade and may accept a query token
	RealtimeAuth gin.HandlerFunc
	// CSRF runs before Auth on protected routes
	CSRF gin.HandlerFunc
	// AuthRateLimit throttles credential endpoints per client
	AuthRateLimit gin.HandlerFunc
	// LLMRateLimit throttles per user the routes that call the language model
	LLMRateLimit gin.HandlerFunc
	// AfterAuth runs on protected routes once the caller is known
	AfterAuth []gin.HandlerFunc
}

func (g Guards) protected() []gin.HandlerFunc {
	chain := []gin.HandlerFunc{g.CSRF, g.Auth}
	return append(chain, g.AfterAuth...)
}

func perm(p identity.Permission) gin.HandlerFunc {
	return middleware.RequirePermission(p)
}

// RegisterAPI registers the CRM routes on r
func RegisterAPI(r *Router, h Handlers, g Guards) {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/ready", h.System.Ready)
	system.GET("/metrics", h.System.Metrics)

	authPublic := NewDomainGroup("auth", "/auth")
	authPublic.POST("/register", g.AuthRateLimit, h.Auth.Register)
	authPublic.POST("/login", g.AuthRateLimit, h.Auth.Login)
	authPublic.POST("/refresh", h.Auth.RefreshToken)
	authPublic.GET("/csrf", h.Auth.CSRFToken)

	authProtected := NewDomainGroup("session", "/auth").Use(g.protected()...)
	authProtected.POST("/logout", h.Auth.Logout)
	authProtected.GET("/me", h.Auth.GetCurrentUser)
	authProtected.PUT("/me", h.Auth.UpdateProfile)
	authProtected.PUT("/password", h.Auth.ChangePassword)

	// Callers outside the workspace: Google's OAuth redirect and the WhatsApp webhook
	callbacks := NewDomainGroup("callbacks", "")
	callbacks.GET("/integrations/google/callback", h.Integration.GoogleCallback)
	callbacks.GET("/webhooks/whatsapp", h.Integration.VerifyWhatsAppWebhook)
	callbacks.POST("/webhooks/whatsapp", h.Integration.WhatsAppWebhook)

	realtime := NewDomainGroup("realtime", "/realtime").Use(g.RealtimeAuth)
	realtime.GET("", h.Realtime.Connect)

	r.Register(system, authPublic, authProtected, callbacks, realtime)
	r.Register(
		userRoutes(h, g),
		investorRoutes(h, g),
		contactRoutes(h, g),
		activityRoutes(h, g),
		taskRoutes(h, g),
		meetingRoutes(h, g),
		networkRoutes(h, g),
		preferenceRoutes(h, g),
		auditRoutes(h, g),
		integrationRoutes(h, g),
		assistantRoutes(h, g),
	)
}

func userRoutes(h Handlers, g Guards) *DomainGroup {
	users := NewDomainGroup("users", "/users").Use(g.protected()...)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.GetByID)
	users.POST("", perm(identity.PermUsersManage), h.User.Invite)
	users.PUT("/:id/role", perm(identity.PermUsersManage), h.User.UpdateRole)
	users.POST("/:id/deactivate", perm(identity.PermUsersManage), h.User.Deactivate)
	return users
}

func investorRoutes(h Handlers, g Guards) *DomainGroup {
	read, write := perm(identity.PermInvestorRead), perm(identity.PermInvestorWrite)

	investors := NewDomainGroup("investors", "/investors").Use(g.protected()...)
	investors.GET("", read, h.Investor.List)
	investors.POST("", write, h.Investor.Create)
	investors.GET("/deleted", read, h.Investor.ListDeleted)
	investors.GET("/pipeline", read, h.Investor.Pipeline)
	investors.POST("/bulk/stage", write, h.Investor.BulkMoveStage)
	investors.GET("/:id", read, h.Investor.GetByID)
	investors.PUT("/:id", write, h.Investor.Update)
	investors.DELETE("/:id", perm(identity.PermInvestorDelete), h.Investor.Delete)
	investors.POST("/:id/restore", perm(identity.PermInvestorDelete), h.Investor.Restore)
	investors.POST("/:id/stage", write, h.Investor.MoveStage)
	investors.GET("/:id/timeline", read, h.Investor.Timeline)
	investors.GET("/:id/contacts", perm(identity.PermContactRead), h.Contact.ListByInvestor)
	investors.GET("/:id/warm-intros", perm(identity.PermNetworkRead), h.Network.ListWarmIntros)
	investors.GET("/:id/news", read, h.Integration.InvestorNews)
	return investors
}

func contactRoutes(h Handlers, g Guards) *DomainGroup {
	read, write := perm(identity.PermContactRead), perm(identity.PermContactWrite)

	contacts := NewDomainGroup("contacts", "/contacts").Use(g.protected()...)
	contacts.GET("", read, h.Contact.List)
	contacts.POST("", write, h.Contact.Create)
	contacts.GET("/:id", read, h.Contact.GetByID)
	contacts.PUT("/:id", write, h.Contact.Update)
	contacts.DELETE("/:id", write, h.Contact.Delete)
	contacts.POST("/:id/restore", write, h.Contact.Restore)
	contacts.POST("/:id/primary", write, h.Contact.SetPrimary)
	return contacts
}

func activityRoutes(h Handlers, g Guards) *DomainGroup {
	read, write := perm(identity.PermActivityRead), perm(identity.PermActivityWrite)

	activities := NewDomainGroup("activities", "/activities").Use(g.protected()...)
	activities.GET("", read, h.Activity.List)
	activities.POST("", write, h.Activity.Log)
	activities.GET("/:id", read, h.Activity.GetByID)
	activities.PUT("/:id", write, h.Activity.Update)
	activities.DELETE("/:id", write, h.Activity.Delete)
	activities.POST("/:id/restore", write, h.Activity.Restore)
	return activities
}

func taskRoutes(h Handlers, g Guards) *DomainGroup {
	read, write := perm(identity.PermTaskRead), perm(identity.PermTaskWrite)

	tasks := NewDomainGroup("tasks", "/tasks").Use(g.protected()...)
	tasks.GET("", read, h.Task.List)
	tasks.POST("", write, h.Task.Create)
	tasks.GET("/mine", read, h.Task.ListMine)
	tasks.GET("/overdue", read, h.Task.ListOverdue)
	tasks.GET("/:id", read, h.Task.GetByID)
	tasks.PUT("/:id", write, h.Task.Update)
	tasks.DELETE("/:id", write, h.Task.Delete)
	tasks.POST("/:id/restore", write, h.Task.Restore)
	tasks.POST("/:id/start", write, h.Task.Start)
	tasks.POST("/:id/complete", write, h.Task.Complete)
	tasks.POST("/:id/cancel", write, h.Task.Cancel)
	tasks.POST("/:id/reopen", write, h.Task.Reopen)
	return tasks
}

func meetingRoutes(h Handlers, g Guards) *DomainGroup {
	read, write := perm(identity.PermMeetingRead), perm(identity.PermMeetingWrite)

	meetings := NewDomainGroup("meetings", "/meetings").Use(g.protected()...)
	meetings.GET("", read, h.Meeting.List)
	meetings.POST("", write, h.Meeting.Create)
	meetings.GET("/:id", read, h.Meeting.GetByID)
	meetings.PUT("/:id", write, h.Meeting.Update)
	meetings.DELETE("/:id", write, h.Meeting.Delete)
	meetings.POST("/:id/restore", write, h.Meeting.Restore)
	meetings.POST("/:id/complete", write, h.Meeting.Complete)
	meetings.POST("/:id/cancel", write, h.Meeting.Cancel)
	meetings.GET("/:id/transcript-upload-url", write, h.Meeting.TranscriptUploadURL)
	meetings.POST("/:id/transcript", write, h.Meeting.AttachTranscript)
	meetings.POST("/:id/analyze", write, g.LLMRateLimit, h.Meeting.AnalyzeTranscript)
	return meetings
}

func networkRoutes(h Handlers, g Guards) *DomainGroup {
	read, imp := perm(identity.PermNetworkRead), perm(identity.PermNetworkImport)

	network := NewDomainGroup("network", "/network").Use(g.protected()...)
	network.POST("/import", imp, h.Network.Import)
	network.GET("/import-url", imp, h.Network.ImportUploadURL)
	network.POST("/import/from-storage", imp, h.Network.ImportFromStorage)
	network.GET("/contacts", read, h.Network.ListContacts)
	network.POST("/match", imp, h.Network.Match)
	network.POST("/relationships/:id/confirm", imp, h.Network.ConfirmRelationship)
	network.POST("/relationships/:id/dismiss", imp, h.Network.DismissRelationship)
	return network
}

// preferenceRoutes serves per-user settings; every role may manage its own
func preferenceRoutes(h Handlers, g Guards) *DomainGroup {
	prefs := NewDomainGroup("preferences", "").Use(g.protected()...)
	prefs.GET("/filters", h.Preferences.ListFilters)
	prefs.POST("/filters", h.Preferences.CreateFilter)
	prefs.GET("/filters/:id", h.Preferences.GetFilter)
	prefs.PUT("/filters/:id", h.Preferences.UpdateFilter)
	prefs.DELETE("/filters/:id", h.Preferences.DeleteFilter)
	prefs.POST("/filters/:id/restore", h.Preferences.RestoreFilter)
	prefs.POST("/filters/:id/default", h.Preferences.SetDefaultFilter)
	prefs.GET("/preferences", h.Preferences.GetPreferences)
	prefs.PUT("/preferences", h.Preferences.UpdatePreferences)
	return prefs
}

func auditRoutes(h Handlers, g Guards) *DomainGroup {
	audit := NewDomainGroup("audit", "/audit").Use(g.protected()...).Use(perm(identity.PermAuditRead))
	audit.GET("", h.Audit.List)
	audit.GET("/:entity_type/:entity_id", h.Audit.ListForEntity)
	return audit
}

func integrationRoutes(h Handlers, g Guards) *DomainGroup {
	integrations := NewDomainGroup("integrations", "").Use(g.protected()...)

	google := integrations.Group("google", "/integrations/google").Use(perm(identity.PermIntegrationManage))
	google.GET("", h.Integration.GoogleStatus)
	google.GET("/auth-url", h.Integration.GoogleAuthURL)
	google.DELETE("", h.Integration.GoogleDisconnect)
	google.POST("/sync", h.Integration.GoogleSync)

	integrations.POST("/messages/send", perm(identity.PermMessageSend), h.Integration.SendMessage)
	integrations.POST("/reports/pipeline", perm(identity.PermReportExport), h.Report.ExportPipeline)
	return integrations
}

func assistantRoutes(h Handlers, g Guards) *DomainGroup {
	ai := NewDomainGroup("assistant", "").Use(g.protected()...)
	ai.GET("/search", middleware.RequireAnyPermission(identity.PermInvestorRead, identity.PermContactRead), h.Assistant.Search)

	assistant := ai.Group("assistant", "/assistant").Use(perm(identity.PermAssistantUse))
	assistant.POST("/chat", g.LLMRateLimit, h.Assistant.Chat)
	assistant.GET("/conversations", h.Assistant.ListConversations)
	assistant.GET("/conversations/:id", h.Assistant.GetConversation)
	return ai
}
