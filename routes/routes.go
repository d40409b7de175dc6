package routes

import (
	"net/http"

	"kirana/accounts"
	"kirana/auth"
	"kirana/categories"
	"kirana/middleware"
	"kirana/models"
	"kirana/orders"
	"kirana/products"
	"kirana/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir("static/uploads"))
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/signup", rl.Limit(auth.Signup))
	router.POST("/api/auth/signin", rl.Limit(auth.Signin))
	router.POST("/api/auth/signout", middleware.Authenticate(auth.Signout))
	router.GET("/api/auth/verify-email", auth.VerifyEmail)
	router.POST("/api/auth/resend-verification", rl.Limit(auth.ResendVerification))
	router.POST("/api/auth/forgot-password", rl.Limit(auth.ForgotPassword))
	router.PUT("/api/auth/reset-password", rl.Limit(auth.ResetPassword))
	router.POST("/api/auth/token/refresh", auth.RefreshToken)
}

func AddAccountRoutes(router *httprouter.Router) {
	router.GET("/api/accounts/me", middleware.Authenticate(accounts.GetMyAccount))
	router.PUT("/api/accounts/update-profile", middleware.Authenticate(accounts.UpdateProfile))
	router.PUT("/api/accounts/change-password", middleware.Authenticate(accounts.ChangePassword))
	router.GET("/api/account/:id", middleware.Authenticate(accounts.GetAccountByID))
}

func AddCategoryRoutes(router *httprouter.Router) {
	router.GET("/api/categories", categories.GetCategories)
	router.GET("/api/categories/nested", categories.GetNestedCategories)
	router.GET("/api/category/:id/children", categories.GetChildren)
}

func AddProductRoutes(router *httprouter.Router) {
	router.GET("/api/products", products.GetProducts)
	router.GET("/api/products/latest", products.GetLatest)
	router.GET("/api/products/random", products.GetRandom)
	router.GET("/api/products/search", products.Search)
	router.GET("/api/products/filter-options", products.FilterOptions)
	router.POST("/api/products/by-ids", products.GetByIDs)
	router.GET("/api/product/:id", products.GetProductDetail)
}

func AddOrderRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/checkout/create-order", rl.Limit(middleware.OptionalAuth(orders.CreateOrder)))
	router.GET("/api/orders/by-user/:id", middleware.Authenticate(orders.GetOrdersByUser))
	router.GET("/api/order/:id/status", orders.GetOrderStatus)
	router.GET("/api/order/:id/payment-qr", orders.PaymentQR)
	router.GET("/api/order-tracking/:orderNumber", orders.TrackOrder)
}

func admin(h httprouter.Handle) httprouter.Handle {
	return middleware.RequireRole(models.RoleAdmin, h)
}

func AddAdminRoutes(router *httprouter.Router) {
	router.GET("/api/admin/products", admin(products.AdminList))
	router.POST("/api/admin/products", admin(products.Create))
	router.GET("/api/admin/product/:id", admin(products.AdminDetail))
	router.PUT("/api/admin/product/:id", admin(products.Update))
	router.DELETE("/api/admin/product/:id", admin(products.Delete))
	router.POST("/api/admin/product/:id/restore", admin(products.Restore))
	router.DELETE("/api/admin/product/:id/force", admin(products.ForceDelete))

	router.GET("/api/admin/categories", admin(categories.AdminList))
	router.POST("/api/admin/categories", admin(categories.Create))
	router.PUT("/api/admin/category/:id", admin(categories.Update))
	router.DELETE("/api/admin/category/:id", admin(categories.Delete))
	router.POST("/api/admin/category/:id/restore", admin(categories.Restore))
	router.DELETE("/api/admin/category/:id/force", admin(categories.ForceDelete))

	router.GET("/api/admin/orders", admin(orders.AdminList))
	router.GET("/api/admin/orders/live", orders.ServeLive(orders.LiveHub))
	router.POST("/api/admin/orders/update-status", admin(orders.UpdateStatus))
	router.GET("/api/admin/order/:id", admin(orders.AdminDetail))
	router.GET("/api/admin/order/:id/invoice", admin(orders.Invoice))

	router.GET("/api/admin/accounts/customers", admin(accounts.GetCustomers))
	router.PUT("/api/admin/account/:id/toggle-status", admin(accounts.ToggleAccountStatus))
}

// RoutesWrapper mounts every route group on the router.
func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter) {
	AddStaticRoutes(router)
	AddAuthRoutes(router, rl)
	AddAccountRoutes(router)
	AddCategoryRoutes(router)
	AddProductRoutes(router)
	AddOrderRoutes(router, rl)
	AddAdminRoutes(router)
}
