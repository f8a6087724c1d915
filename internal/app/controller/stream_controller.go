package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/IdoNaor1/TasteClub/internal/app/cache"
	"github.com/IdoNaor1/TasteClub/internal/app/repository"
	"github.com/IdoNaor1/TasteClub/internal/middleware"
	ws "github.com/IdoNaor1/TasteClub/internal/websocket"
)

const feedStreamSize = 20

// StreamController serves live cache observations over websocket.
type StreamController struct {
	auth        repository.AuthRepository
	reviews     repository.ReviewRepository
	restaurants repository.RestaurantRepository
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

// NewStreamController accepts upgrades from allowedOrigins; an empty list or
// "*" allows any origin.
func NewStreamController(
	auth repository.AuthRepository,
	reviews repository.ReviewRepository,
	restaurants repository.RestaurantRepository,
	hub *ws.Hub,
	allowedOrigins []string,
) *StreamController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &StreamController{
		auth:        auth,
		reviews:     reviews,
		restaurants: restaurants,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || origins["*"] || origins[origin]
			},
		},
	}
}

// Restaurant streams the cached restaurant row, including its aggregates
// GET /api/v1/ws/restaurants/:id
func (ctrl *StreamController) Restaurant(c *gin.Context) {
	id := c.Param("id")
	ctrl.serve(c, "restaurant:"+id, func(ctx context.Context, client *ws.Client) {
		watch := ctrl.restaurants.ObserveRestaurant(ctx, id)
		ws.Pipe(client, watch.C, watch.Unsubscribe)
	})
}

// User streams the cached user profile
// GET /api/v1/ws/users/:id
func (ctrl *StreamController) User(c *gin.Context) {
	id := c.Param("id")
	ctrl.serve(c, "user:"+id, func(ctx context.Context, client *ws.Client) {
		watch := ctrl.auth.ObserveUser(ctx, id)
		ws.Pipe(client, watch.C, watch.Unsubscribe)
	})
}

// Feed streams the newest cached reviews, optionally filtered by userId or restaurantId
// GET /api/v1/ws/feed?userId=&restaurantId=
func (ctrl *StreamController) Feed(c *gin.Context) {
	q := cache.ReviewQuery{
		UserID:       c.Query("userId"),
		RestaurantID: c.Query("restaurantId"),
		Limit:        feedStreamSize,
	}
	ctrl.serve(c, "feed", func(ctx context.Context, client *ws.Client) {
		watch := ctrl.reviews.ObserveReviews(ctx, q)
		ws.Pipe(client, watch.C, watch.Unsubscribe)
	})
}

func (ctrl *StreamController) serve(c *gin.Context, stream string, pipe func(context.Context, *ws.Client)) {
	log := middleware.GetLoggerFromContext(c)
	uid, _ := middleware.GetUserID(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, stream, uid)
	ctrl.hub.Register(client)

	// The request context ends when this handler returns.
	go pipe(context.Background(), client)
	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket stream opened", map[string]interface{}{
		"stream":  stream,
		"user_id": uid,
	})
}
