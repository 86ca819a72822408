package models

import "github.com/google/uuid"

// Request — запрос на генерацию. Набор обязательных полей зависит от Kind:
//   - reel/post/poll/strategy: Agenda, Mood, Client (+ AdditionalInput);
//   - email: Receiver, ClientCompany, Client, TargetIndustry (+ AdditionalInput);
//   - strategy_chat: Industry, Purpose, Client, UserInput;
//   - script: Industry, Purpose, Client.
//
// Username — автор запроса (из токена), в промпт не попадает.
type Request struct {
	Kind     Kind
	Username string

	Client          string
	Agenda          string
	Mood            string
	AdditionalInput string

	Receiver       string
	ClientCompany  string
	TargetIndustry string

	Industry  string
	Purpose   string
	UserInput string
}

// Cost — приблизительная стоимость вызова по числу символов.
// Не сохраняется и не отдаётся клиенту: только лог и метрики.
type Cost struct {
	InputChars  int
	OutputChars int
	USD         float64
	INR         float64
}

// Result — результат успешной генерации.
type Result struct {
	ID      uuid.UUID
	Kind    Kind
	Backend string
	Text    string
	Cost    Cost
}
