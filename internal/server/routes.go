package server

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"taskboard/internal/auth"
	"taskboard/internal/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/service"
)

func (s *Server) setupRoutes(h *handlers.Handler, tokens *auth.Tokens, svc *service.Service) {
	s.mux.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
		logger.RequestLogger,
		chiMiddleware.Recoverer,
	)

	authenticated := middleware.Auth(tokens, svc)

	s.mux.Route("/api", func(r chi.Router) {
		// публичные маршруты
		r.Get("/ping", h.PingHandler)
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)
		r.Get("/boards/public", h.ListPublicBoardsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/auth/me", h.MeHandler)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsersHandler)
				r.Get("/{userId}", h.GetUserHandler)
				r.Put("/{userId}", h.UpdateUserHandler)
				r.Delete("/{userId}", h.DeleteUserHandler)
			})

			// заказы
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.CreateOrderHandler)
				r.Get("/", h.ListOrdersHandler)
				r.Get("/open", h.ListOpenOrdersHandler)
				r.Get("/my", h.ListMyOrdersHandler)
				r.Get("/{orderId}", h.GetOrderHandler)
				r.Put("/{orderId}", h.UpdateOrderHandler)
				r.Delete("/{orderId}", h.DeleteOrderHandler)
				r.Post("/{orderId}/complete", h.CompleteOrderHandler)
				r.Post("/{orderId}/cancel", h.CancelOrderHandler)
				r.Post("/{orderId}/restore", h.RestoreOrderHandler)
			})

			// отклики
			r.Route("/proposals", func(r chi.Router) {
				r.Post("/", h.CreateProposalHandler)
				r.Get("/", h.ListProposalsHandler)
				r.Get("/my", h.ListMyProposalsHandler)
				r.Get("/pending", h.ListPendingProposalsHandler)
				r.Get("/order/{orderId}", h.ListOrderProposalsHandler)
				r.Get("/{proposalId}", h.GetProposalHandler)
				r.Put("/{proposalId}", h.UpdateProposalHandler)
				r.Delete("/{proposalId}", h.DeleteProposalHandler)
				r.Post("/{proposalId}/accept", h.AcceptProposalHandler)
				r.Post("/{proposalId}/reject", h.RejectProposalHandler)
				r.Post("/{proposalId}/withdraw", h.WithdrawProposalHandler)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", h.SendMessageHandler)
				r.Get("/unread/count", h.UnreadCountHandler)
				r.Get("/order/{orderId}", h.OrderMessagesHandler)
				r.Get("/order/{orderId}/unread/count", h.OrderUnreadCountHandler)
				r.Post("/order/{orderId}/read", h.MarkOrderMessagesReadHandler)
				r.Post("/{messageId}/read", h.MarkMessageReadHandler)
				r.Delete("/{messageId}", h.DeleteMessageHandler)
			})

			r.Route("/boards", func(r chi.Router) {
				r.Post("/", h.CreateBoardHandler)
				r.Get("/", h.ListMyBoardsHandler)
				r.Get("/{boardId}", h.GetBoardHandler)
				r.Put("/{boardId}", h.UpdateBoardHandler)
				r.Delete("/{boardId}", h.DeleteBoardHandler)
			})

			r.Route("/columns", func(r chi.Router) {
				r.Post("/", h.CreateColumnHandler)
				r.Patch("/reorder", h.ReorderColumnsHandler)
				r.Get("/board/{boardId}", h.ListColumnsHandler)
				r.Put("/{columnId}", h.UpdateColumnHandler)
				r.Delete("/{columnId}", h.DeleteColumnHandler)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", h.CreateTaskHandler)
				r.Get("/my", h.ListMyTasksHandler)
				r.Get("/assigned", h.ListAssignedTasksHandler)
				r.Get("/board/{boardId}", h.ListBoardTasksHandler)
				r.Get("/{taskId}", h.GetTaskHandler)
				r.Put("/{taskId}", h.UpdateTaskHandler)
				r.Delete("/{taskId}", h.DeleteTaskHandler)
				r.Patch("/{taskId}/column", h.MoveTaskHandler)
			})

			r.Route("/telegram", func(r chi.Router) {
				r.Post("/generate-code", h.GenerateBindingCodeHandler)
				r.Get("/status", h.TelegramStatusHandler)
				r.Post("/unlink", h.UnlinkTelegramHandler)
			})
		})
	})
}
