package router

import (
	"github.com/gofiber/fiber/v2"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Deps carries the controllers and handlers built at startup into the
// routers, so no route reaches for process-global state.
type Deps struct {
	Http *HttpRouter
	Api  *ApiRouter
}

func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, deps.Http, deps.Api)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
