package app

// setupEventBus registers the post-commit handlers on the bus.
func (a *App) setupEventBus() {
	a.Dispatcher.Register(a.Deps.EventBus)
}
