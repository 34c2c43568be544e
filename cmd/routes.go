package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("user"))

	mux := pat.New()

	// Auth
	mux.Post("/auth/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/auth/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Post("/auth/refresh", standardMiddleware.ThenFunc(app.userHandler.Refresh))

	// Profiles
	mux.Get("/profile/:id", authMiddleware.ThenFunc(app.userHandler.GetProfile))
	mux.Put("/profile/:id", authMiddleware.ThenFunc(app.userHandler.UpdateProfile))

	// Items
	mux.Post("/items", authMiddleware.ThenFunc(app.itemHandler.CreateItem))
	mux.Post("/items/filtered", standardMiddleware.ThenFunc(app.itemHandler.GetFilteredItems))
	mux.Post("/items/availability", authMiddleware.ThenFunc(app.itemHandler.SetAvailability))
	mux.Get("/items/user/:user_id", standardMiddleware.ThenFunc(app.itemHandler.GetItemsByUserID))
	mux.Get("/items/:id", standardMiddleware.ThenFunc(app.itemHandler.GetItemByID))
	mux.Put("/items/:id", authMiddleware.ThenFunc(app.itemHandler.UpdateItem))
	mux.Del("/items/:id", authMiddleware.ThenFunc(app.itemHandler.DeleteItem))
	mux.Post("/items/:id/images", authMiddleware.ThenFunc(app.itemHandler.UploadImage))
	mux.Get("/categories", standardMiddleware.ThenFunc(app.itemHandler.GetCategories))

	// Rental requests
	mux.Post("/requests", authMiddleware.ThenFunc(app.requestHandler.SubmitRequest))
	mux.Get("/requests/incoming", authMiddleware.ThenFunc(app.requestHandler.ListIncoming))
	mux.Get("/requests/outgoing", authMiddleware.ThenFunc(app.requestHandler.ListOutgoing))
	mux.Post("/requests/:id/accept", authMiddleware.ThenFunc(app.requestHandler.AcceptRequest))
	mux.Post("/requests/:id/reject", authMiddleware.ThenFunc(app.requestHandler.RejectRequest))

	// Chats and messages
	mux.Post("/chats", authMiddleware.ThenFunc(app.chatHandler.CreateChat))
	mux.Get("/chats", authMiddleware.ThenFunc(app.chatHandler.GetMyChats))
	mux.Get("/chats/:id", authMiddleware.ThenFunc(app.chatHandler.GetChatByID))
	mux.Get("/chats/:id/messages", authMiddleware.ThenFunc(app.messageHandler.GetMessagesForChat))
	mux.Post("/messages", authMiddleware.ThenFunc(app.messageHandler.CreateMessage))
	mux.Get("/messages/unread", authMiddleware.ThenFunc(app.messageHandler.CountUnread))
	mux.Get("/ws", http.HandlerFunc(app.WebSocketHandler))

	// Notifications
	mux.Post("/notifications/token", authMiddleware.ThenFunc(app.notificationHandler.RegisterToken))

	// Dashboard
	mux.Get("/dashboard", authMiddleware.ThenFunc(app.dashboardHandler.GetSummary))

	return mux
}
