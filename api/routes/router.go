package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pyankovzhe/market-backend/api/controllers"
	"github.com/pyankovzhe/market-backend/api/middleware"
	"github.com/pyankovzhe/market-backend/api/responses"
	authsvc "github.com/pyankovzhe/market-backend/internal/auth"
	"github.com/pyankovzhe/market-backend/internal/basket"
	"github.com/pyankovzhe/market-backend/internal/catalog"
	"github.com/pyankovzhe/market-backend/internal/contacts"
	"github.com/pyankovzhe/market-backend/internal/partner"
	"github.com/pyankovzhe/market-backend/pkg/auth/session"
	"github.com/pyankovzhe/market-backend/pkg/config"
	"github.com/pyankovzhe/market-backend/pkg/db"
	"github.com/pyankovzhe/market-backend/pkg/enums"
	pkgerrors "github.com/pyankovzhe/market-backend/pkg/errors"
	"github.com/pyankovzhe/market-backend/pkg/logger"
	"github.com/pyankovzhe/market-backend/pkg/redis"
)

// Deps carries everything the router needs to assemble the HTTP surface.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Sessions session.AccessSessionChecker

	Auth     authsvc.Service
	Contacts contacts.Service
	Catalog  catalog.Service
	Partner  partner.Service
	Basket   basket.Service
}

// NewRouter builds the chi tree for the public API.
func NewRouter(deps Deps) *chi.Mux {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.CORS())

	r.Get("/health", controllers.Health(deps.DB, deps.Redis))
	r.Handle("/metrics", promhttp.Handler())

	authenticated := middleware.Authenticate(deps.Config.JWT, deps.Sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.Register(deps.Auth, logg))
			r.Post("/confirm", controllers.ConfirmEmail(deps.Auth, logg))
			r.Post("/login", controllers.Login(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/logout", controllers.Logout(deps.Auth, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/user", func(r chi.Router) {
				r.Get("/", controllers.GetProfile(deps.Auth, logg))
				r.Patch("/", controllers.UpdateProfile(deps.Auth, logg))

				r.Route("/contacts", func(r chi.Router) {
					r.Get("/", controllers.ListContacts(deps.Contacts, logg))
					r.Post("/", controllers.CreateContact(deps.Contacts, logg))
					r.Patch("/{contactID}", controllers.UpdateContact(deps.Contacts, logg))
					r.Delete("/", controllers.DeleteContacts(deps.Contacts, logg))
				})
			})

			r.Route("/basket", func(r chi.Router) {
				r.Get("/", controllers.GetBasket(deps.Basket, logg))
				r.Post("/items", controllers.AddBasketItems(deps.Basket, logg))
				r.Patch("/items", controllers.UpdateBasketItems(deps.Basket, logg))
				r.Delete("/items", controllers.RemoveBasketItems(deps.Basket, logg))
				r.Post("/place", controllers.PlaceOrder(deps.Basket, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(deps.Basket, logg))
				r.Get("/{orderID}", controllers.GetOrder(deps.Basket, logg))
			})

			r.Route("/partner", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleShop))
				r.Post("/update", controllers.PartnerUpdate(deps.Partner, logg))
				r.Get("/orders", controllers.ListPartnerOrders(deps.Basket, logg))
			})
		})

		r.Get("/shops", controllers.ListShops(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/products", controllers.SearchListings(deps.Catalog, logg))
		r.Get("/products/{listingID}", controllers.GetListing(deps.Catalog, logg))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	return r
}
