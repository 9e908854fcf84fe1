package a

type sugared struct{}

func (sugared) Infoln(args ...interface{}) {}

func (sugared) Errorf(format string, args ...interface{}) {}

func (sugared) Debugln(args ...interface{}) {}

func (sugared) Sync() error { return nil }

func describe(args ...interface{}) string { return "" }

var Log sugared

type request struct {
	Username string
	Password string
}

func handle(authToken string, req request, count int) {
	Log.Infoln("received", authToken)        // want `secret "authToken" passed to Log.Infoln`
	Log.Errorf("bad login %v", req.Password) // want `secret "Password" passed to Log.Errorf`
	Log.Debugln("user", req.Username, "count", count)
	Log.Infoln("token refreshed")
	_ = describe(authToken)
	_ = Log.Sync()
}
