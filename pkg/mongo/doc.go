// Package mongo provides MongoDB connection management for the notification
// status store.
//
// Configuration comes from the environment (MONGODB_* variables). Connecting
// retries a fixed number of times and verifies every attempt with a ping, so a
// returned client is known to be reachable.
//
// # Usage
//
//	cfg := config.MustLoad[mongo.Config]()
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer mongo.Disconnect(context.Background(), db)
//
//	check := mongo.Healthcheck(db.Client())
//
// # Error Handling
//
// Connection and health failures wrap ErrFailedToConnectToMongo and
// ErrHealthcheckFailed and can be checked with errors.Is.
package mongo
