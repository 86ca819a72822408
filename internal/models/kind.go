// Package models содержит доменные сущности orange-api.
package models

// Kind — вид генерируемого контента. Значение совпадает с суффиксом
// маршрута /api/generate_orange_<kind>.
type Kind string

const (
	KindReel     Kind = "reel"
	KindPost     Kind = "post"
	KindPoll     Kind = "poll"
	KindStrategy Kind = "strategy"
	KindEmail    Kind = "email"
	KindChat     Kind = "strategy_chat"
	KindScript   Kind = "script"
)

var allKinds = []Kind{KindReel, KindPost, KindPoll, KindStrategy, KindEmail, KindChat, KindScript}

// Kinds возвращает все поддерживаемые виды в порядке объявления.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid сообщает, поддерживается ли вид.
func (k Kind) Valid() bool {
	for _, v := range allKinds {
		if v == k {
			return true
		}
	}

	return false
}
