package router

import (
	"github.com/dtales/backend/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("dtales_session", store))

	r.GET("/health", api.Health)

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/login", api.Login)
			auth.POST("/logout", api.Logout)
		}

		blogs := apiGroup.Group("/blogs")
		{
			blogs.GET("/public", api.ListPublicBlogs)
			blogs.GET("/:id", api.GetBlog)

			admin := blogs.Group("", handler.AuthRequired())
			{
				admin.GET("", api.ListBlogs)
				admin.POST("", api.CreateBlog)
				admin.PUT("/:id", api.UpdateBlog)
				admin.DELETE("/:id", api.DeleteBlog)
			}
		}

		caseStudies := apiGroup.Group("/case-studies")
		{
			caseStudies.GET("/public", api.ListPublicCaseStudies)
			caseStudies.GET("/:id", api.GetCaseStudy)

			admin := caseStudies.Group("", handler.AuthRequired())
			{
				admin.GET("", api.ListCaseStudies)
				admin.POST("", api.CreateCaseStudy)
				admin.PUT("/:id", api.UpdateCaseStudy)
				admin.DELETE("/:id", api.DeleteCaseStudy)
			}
		}

		uploads := apiGroup.Group("/uploads", handler.AuthRequired())
		{
			uploads.POST("/image", api.UploadImage)
			uploads.POST("/docx", api.UploadDocument)
		}
	}

	return r
}
