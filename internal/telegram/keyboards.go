package telegram

import "fmt"

const (
	BtnRegister  = "📝 Регистрация"
	BtnMyCode    = "🎫 Мой код"
	BtnScreening = "🧪 Пройти отбор"
)

func MainMenuKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: BtnRegister}},
			{{Text: BtnMyCode}, {Text: BtnScreening}},
		},
		ResizeKeyboard: true,
	}
}

// AnswerKeyboard renders one inline button per option. Callback payload:
// ans:<questionID>:<optionIndex>.
func AnswerKeyboard(questionID uint, options []string) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	for i, opt := range options {
		rows = append(rows, []InlineKeyboardButton{
			{Text: opt, CallbackData: fmt.Sprintf("ans:%d:%d", questionID, i)},
		})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
