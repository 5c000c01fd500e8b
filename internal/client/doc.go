// Package client is the user-facing facade over the decoder, the sentinel
// factories, write parsing and the local document cache.
//
// A Database is bound to one (project, database) identity. Documents are
// addressed through DocumentRef handles, read back as Snapshots, and written
// with Set and Update, whose payloads may embed the sentinels returned by
// Delete, ServerTimestamp, ArrayUnion, ArrayRemove and Increment.
//
//	db := client.New(model.NewDatabaseID("demo", ""), client.WithStore(st))
//	ref, _ := db.Doc("rooms/lobby")
//	_, err := ref.Update(ctx, map[string]any{
//		"visits":  client.Increment(1),
//		"updated": client.ServerTimestamp(),
//	})
package client
