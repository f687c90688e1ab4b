// Package mongo connects to MongoDB with the official v2 driver.
//
// Configuration is read from MONGODB_* environment variables. New retries the
// initial connect and ping, NewWithDatabase additionally selects the
// configured database, and Healthcheck exposes a ping for readiness probes.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
package mongo
