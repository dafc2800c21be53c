package helpers

import "context"

// CurrentUser resolves a Telegram sender ID to a domain entity via a store
// that implements UserByTelegramID. The generic type T allows different
// projects to supply their own user model.
func CurrentUser[T any](
	ctx context.Context,
	store interface {
		UserByTelegramID(context.Context, int64) (T, error)
	},
	tgID int64,
) (T, error) {
	var zero T
	if store == nil {
		return zero, nil
	}
	return store.UserByTelegramID(ctx, tgID)
}
