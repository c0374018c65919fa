// Package logger envuelve zap para los dos origins de la demo.
//
// Hay un único *zap.Logger de proceso (Init/L) y cada request lleva en su
// context.Context un hijo con request_id y, una vez resuelta, la sesión.
// Los handlers y el motor lo recuperan con From(ctx).
//
// Ids de sesión y tokens CSRF son credenciales: se loguean sólo como
// fingerprint (Session), nunca en claro.
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
//	ctx, log := logger.With(ctx, logger.Component("ledger"))
//	log.Info("transfer applied", logger.Amount(n), logger.Balance(after))
package logger
