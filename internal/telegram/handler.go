package telegram

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"
	"github.com/saeidsamfoladi/Telegrambot/internal/services"
	"github.com/saeidsamfoladi/Telegrambot/internal/ws"
)

var invitePattern = regexp.MustCompile(`^INV-[0-9A-F]{8}$`)

const errGeneric = "⚠️ Произошла ошибка. Попробуйте ещё раз."

type UpdateHandler struct {
	client        *Client
	inputs        *InputRegister
	members       *services.MemberService
	screening     *services.ScreeningService
	invites       *services.InviteService
	codes         *services.CodeService
	hub           *ws.Hub
	admins        map[int64]bool
	requireInvite bool
}

func NewUpdateHandler(
	client *Client,
	inputs *InputRegister,
	members *services.MemberService,
	screening *services.ScreeningService,
	invites *services.InviteService,
	codes *services.CodeService,
	hub *ws.Hub,
	adminIDs []int64,
	requireInvite bool,
) *UpdateHandler {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &UpdateHandler{
		client:        client,
		inputs:        inputs,
		members:       members,
		screening:     screening,
		invites:       invites,
		codes:         codes,
		hub:           hub,
		admins:        admins,
		requireInvite: requireInvite,
	}
}

func (h *UpdateHandler) Handle(upd Update) {
	if upd.CallbackQuery != nil {
		h.handleCallback(upd.CallbackQuery)
		return
	}
	if upd.Message != nil {
		h.handleMessage(upd.Message)
	}
}

func (h *UpdateHandler) isAdmin(userID int64) bool {
	return h.admins[userID]
}

func (h *UpdateHandler) handleMessage(msg *Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		h.handleCommand(msg, userID, chatID, text)
		return
	}

	switch text {
	case BtnRegister:
		h.cmdRegister(msg.From, chatID)
		return
	case BtnMyCode:
		h.cmdMyCode(userID, chatID)
		return
	case BtnScreening:
		h.cmdScreening(userID, chatID)
		return
	}

	// A member-code-shaped message is never consumed as a free-text answer:
	// it is always treated as a screening entry credential.
	if p, ok := h.inputs.Peek(userID); ok && !services.IsValidCode(text) {
		h.inputs.Clear(userID)
		h.onTextAnswer(userID, chatID, p, text)
		return
	}

	if services.IsValidCode(text) {
		h.onCode(userID, chatID, text)
		return
	}

	if invitePattern.MatchString(text) {
		h.onInvite(msg.From, chatID, text)
		return
	}

	h.client.SendMessage(chatID, "Используйте /start или кнопки меню.", "", MainMenuKeyboard())
}

func (h *UpdateHandler) handleCommand(msg *Message, userID, chatID int64, text string) {
	fields := strings.Fields(text)
	cmd := strings.Split(fields[0], "@")[0]
	args := fields[1:]

	switch cmd {
	case "/start":
		h.cmdStart(msg.From, chatID)
	case "/register":
		h.cmdRegister(msg.From, chatID)
	case "/mycode":
		h.cmdMyCode(userID, chatID)
	case "/whoami":
		h.cmdWhoami(userID, chatID)
	case "/members":
		h.cmdMembers(userID, chatID)
	case "/findcode":
		h.cmdFindCode(userID, chatID, args)
	case "/gencode":
		h.cmdGenCode(userID, chatID, args)
	case "/codes":
		h.cmdCodes(userID, chatID)
	case "/revoke":
		h.cmdRevoke(userID, chatID, args)
	default:
		h.client.SendMessage(chatID, "Неизвестная команда. Используйте кнопки меню.", "", MainMenuKeyboard())
	}
}

func (h *UpdateHandler) cmdStart(from *User, chatID int64) {
	h.inputs.Clear(from.ID)

	name := from.FirstName
	if name == "" {
		name = "гость"
	}
	h.client.SendMessage(chatID,
		fmt.Sprintf("👋 Привет, <b>%s</b>!\n\nЭтот бот выдаёт членский код и проводит отбор.\nВыберите действие:", name),
		"HTML", MainMenuKeyboard())
}

func (h *UpdateHandler) cmdRegister(from *User, chatID int64) {
	if member, err := h.members.Get(from.ID); err == nil {
		h.client.SendMessage(chatID,
			fmt.Sprintf("Вы уже зарегистрированы.\nВаш код: <b>%s</b>", member.MyCode),
			"HTML", MainMenuKeyboard())
		return
	} else if !errors.Is(err, services.ErrMemberNotFound) {
		log.Printf("register: %v", err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	if h.requireInvite {
		h.client.SendMessage(chatID,
			"Регистрация по приглашениям.\nОтправьте код приглашения вида <b>INV-XXXXXXXX</b>.",
			"HTML", nil)
		return
	}

	member, created, err := h.members.Register(from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		log.Printf("register %d: %v", from.ID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	if created {
		h.hub.Broadcast(ws.Event{Type: "member_registered", Data: member})
	}
	h.client.SendMessage(chatID,
		fmt.Sprintf("✅ Регистрация завершена!\n\nВаш код: <b>%s</b>\nСохраните его — он понадобится для отбора.", member.MyCode),
		"HTML", MainMenuKeyboard())
}

func (h *UpdateHandler) cmdMyCode(userID, chatID int64) {
	code, err := h.codes.EnsureCodeFormat(userID)
	if err != nil {
		log.Printf("mycode %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	if code == "" {
		h.client.SendMessage(chatID, "Вы ещё не зарегистрированы. Нажмите «"+BtnRegister+"».", "", MainMenuKeyboard())
		return
	}
	h.client.SendMessage(chatID, fmt.Sprintf("🎫 Ваш код: <b>%s</b>", code), "HTML", nil)
}

func (h *UpdateHandler) cmdWhoami(userID, chatID int64) {
	member, err := h.members.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			h.client.SendMessage(chatID, "Вы ещё не зарегистрированы.", "", MainMenuKeyboard())
			return
		}
		log.Printf("whoami %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	status := member.ScreeningStatus
	if status == models.ScreeningStatusPending {
		status = "отбор не пройден"
	} else {
		status = "оценка " + status
	}
	h.client.SendMessage(chatID,
		fmt.Sprintf("👤 <b>%s %s</b>\nКод: <b>%s</b>\nСтатус: %s\nС нами с %s",
			member.FirstName, member.LastName, member.MyCode, status,
			member.JoinedAt.Format("02.01.2006")),
		"HTML", nil)
}

func (h *UpdateHandler) cmdScreening(userID, chatID int64) {
	member, err := h.members.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			h.client.SendMessage(chatID, "Сначала зарегистрируйтесь: «"+BtnRegister+"».", "", MainMenuKeyboard())
			return
		}
		log.Printf("screening %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	if member.ScreeningStatus != models.ScreeningStatusPending {
		h.sendTerminal(chatID, member.ScreeningStatus)
		return
	}
	h.client.SendMessage(chatID,
		"Для входа в отбор отправьте ваш членский код (например <b>A123456</b>).",
		"HTML", nil)
}

// onCode handles a member-code-shaped message: the screening entry
// credential. The submitted code must match the sender's own stored code.
func (h *UpdateHandler) onCode(userID, chatID int64, code string) {
	member, err := h.members.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			h.client.SendMessage(chatID, "Сначала зарегистрируйтесь: «"+BtnRegister+"».", "", MainMenuKeyboard())
			return
		}
		log.Printf("code entry %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	if member.MyCode != code {
		h.client.SendMessage(chatID, "❌ Этот код не совпадает с вашим. Проверьте «"+BtnMyCode+"».", "", nil)
		return
	}

	session, _, err := h.screening.Start(userID)
	if err != nil {
		if errors.Is(err, services.ErrScreeningDone) {
			h.sendTerminal(chatID, member.ScreeningStatus)
			return
		}
		log.Printf("screening start %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	h.askNext(userID, chatID, session.ID)
}

func (h *UpdateHandler) sendTerminal(chatID int64, grade string) {
	h.client.SendMessage(chatID,
		fmt.Sprintf("Отбор уже завершён, ваша оценка: <b>%s</b>. Повторное прохождение недоступно.", grade),
		"HTML", nil)
}

func (h *UpdateHandler) onTextAnswer(userID, chatID int64, p PendingInput, text string) {
	if err := h.screening.SubmitText(p.SessionID, p.QuestionID, text); err != nil {
		log.Printf("text answer %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	h.askNext(userID, chatID, p.SessionID)
}

// askNext sends the next unanswered question, or finishes the session when
// none remain.
func (h *UpdateHandler) askNext(userID, chatID int64, sessionID uint) {
	question, total, err := h.screening.NextQuestion(sessionID)
	if err != nil {
		log.Printf("next question %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	if question == nil {
		h.finish(userID, chatID, sessionID, total)
		return
	}

	answered, err := h.screening.CountAnswers(sessionID)
	if err != nil {
		log.Printf("count answers %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	header := fmt.Sprintf("❓ <b>Вопрос %d из %d</b>\n\n%s", answered+1, total, question.QText)

	if question.QType == models.QuestionTypeText {
		h.inputs.Await(userID, sessionID, question.ID)
		h.client.SendMessage(chatID, header+"\n\nНапишите ответ сообщением.", "HTML", nil)
		return
	}

	h.client.SendMessage(chatID, header, "HTML", AnswerKeyboard(question.ID, question.Options))
}

func (h *UpdateHandler) finish(userID, chatID int64, sessionID uint, total int) {
	result, err := h.screening.Finish(sessionID)
	if err != nil {
		log.Printf("finish session %d: %v", userID, err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	h.hub.Broadcast(ws.Event{Type: "screening_finished", Data: map[string]interface{}{
		"tg_id": userID,
		"score": result.Score,
		"grade": result.Grade,
	}})

	h.client.SendMessage(chatID,
		fmt.Sprintf("🏁 Отбор завершён!\n\nБаллы: <b>%d из %d</b>\nОценка: <b>%s</b> — %s",
			result.Score, result.MaxScore, result.Grade, gradeExplanation(result.Grade)),
		"HTML", MainMenuKeyboard())
}

func gradeExplanation(grade string) string {
	switch grade {
	case "A":
		return "отличный результат"
	case "B":
		return "хороший результат"
	case "C":
		return "есть над чем работать"
	default:
		return "нужна базовая подготовка"
	}
}

func (h *UpdateHandler) onInvite(from *User, chatID int64, code string) {
	if !h.requireInvite {
		h.client.SendMessage(chatID, "Регистрация открыта, код приглашения не нужен: /register", "", nil)
		return
	}

	member, err := h.invites.Redeem(code, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyMember):
			h.client.SendMessage(chatID, "Вы уже зарегистрированы.", "", MainMenuKeyboard())
		case errors.Is(err, services.ErrInviteNotFound):
			h.client.SendMessage(chatID, "❌ Такого кода приглашения нет.", "", nil)
		case errors.Is(err, services.ErrInviteRevoked):
			h.client.SendMessage(chatID, "❌ Код приглашения отозван.", "", nil)
		case errors.Is(err, services.ErrInviteExpired):
			h.client.SendMessage(chatID, "❌ Срок действия кода истёк.", "", nil)
		case errors.Is(err, services.ErrInviteExhausted):
			h.client.SendMessage(chatID, "❌ Лимит использований кода исчерпан.", "", nil)
		default:
			log.Printf("redeem %d: %v", from.ID, err)
			h.client.SendMessage(chatID, errGeneric, "", nil)
		}
		return
	}

	h.hub.Broadcast(ws.Event{Type: "invite_redeemed", Data: map[string]interface{}{
		"code":  code,
		"tg_id": from.ID,
	}})
	h.client.SendMessage(chatID,
		fmt.Sprintf("✅ Приглашение принято!\n\nВаш код: <b>%s</b>", member.MyCode),
		"HTML", MainMenuKeyboard())
}

// Admin commands. Invocations from anyone outside the allowlist are dropped
// without a reply, so the commands stay undiscoverable.

func (h *UpdateHandler) cmdMembers(userID, chatID int64) {
	if !h.isAdmin(userID) {
		return
	}
	count, err := h.members.Count()
	if err != nil {
		log.Printf("members count: %v", err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	h.client.SendMessage(chatID, fmt.Sprintf("👥 Участников: <b>%d</b>", count), "HTML", nil)
}

func (h *UpdateHandler) cmdFindCode(userID, chatID int64, args []string) {
	if !h.isAdmin(userID) {
		return
	}
	if len(args) != 1 || !services.IsValidCode(args[0]) {
		h.client.SendMessage(chatID, "Использование: /findcode A123456", "", nil)
		return
	}

	member, err := h.members.FindByCode(args[0])
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			h.client.SendMessage(chatID, "Участник с таким кодом не найден.", "", nil)
			return
		}
		log.Printf("findcode: %v", err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	h.client.SendMessage(chatID,
		fmt.Sprintf("👤 <b>%s %s</b> (@%s)\nID: <code>%d</code>\nСтатус: %s\nС нами с %s",
			member.FirstName, member.LastName, member.Username, member.TelegramID,
			member.ScreeningStatus, member.JoinedAt.Format("02.01.2006")),
		"HTML", nil)
}

func (h *UpdateHandler) cmdGenCode(userID, chatID int64, args []string) {
	if !h.isAdmin(userID) {
		return
	}
	if len(args) < 1 {
		h.client.SendMessage(chatID, "Использование: /gencode <использований> [часов] [заметка]", "", nil)
		return
	}

	uses, err := strconv.Atoi(args[0])
	if err != nil || uses < 1 {
		h.client.SendMessage(chatID, "Число использований должно быть положительным.", "", nil)
		return
	}

	var ttl time.Duration
	note := ""
	if len(args) > 1 {
		if hours, err := strconv.Atoi(args[1]); err == nil {
			ttl = time.Duration(hours) * time.Hour
			note = strings.Join(args[2:], " ")
		} else {
			note = strings.Join(args[1:], " ")
		}
	}

	invite, err := h.invites.Mint(userID, uses, ttl, note)
	if err != nil {
		log.Printf("gencode: %v", err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}

	expiry := "бессрочно"
	if invite.ExpiresAt != nil {
		expiry = "до " + invite.ExpiresAt.Format("02.01.2006 15:04")
	}
	h.client.SendMessage(chatID,
		fmt.Sprintf("🎟 Код: <code>%s</code>\nИспользований: %d\nДействует: %s",
			invite.Code, invite.AllowedUses, expiry),
		"HTML", nil)
}

func (h *UpdateHandler) cmdCodes(userID, chatID int64) {
	if !h.isAdmin(userID) {
		return
	}
	invites, err := h.invites.List()
	if err != nil {
		log.Printf("codes: %v", err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	if len(invites) == 0 {
		h.client.SendMessage(chatID, "Кодов приглашения пока нет.", "", nil)
		return
	}

	lines := []string{"🎟 <b>Коды приглашения:</b>\n"}
	for _, inv := range invites {
		state := "активен"
		if !inv.Active {
			state = "отозван"
		}
		lines = append(lines, fmt.Sprintf("<code>%s</code> — %d/%d, %s %s",
			inv.Code, inv.UsedCount, inv.AllowedUses, state, inv.Note))
	}
	h.client.SendMessage(chatID, strings.Join(lines, "\n"), "HTML", nil)
}

func (h *UpdateHandler) cmdRevoke(userID, chatID int64, args []string) {
	if !h.isAdmin(userID) {
		return
	}
	if len(args) != 1 {
		h.client.SendMessage(chatID, "Использование: /revoke INV-XXXXXXXX", "", nil)
		return
	}

	if err := h.invites.Revoke(args[0]); err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			h.client.SendMessage(chatID, "Такого кода нет.", "", nil)
			return
		}
		log.Printf("revoke: %v", err)
		h.client.SendMessage(chatID, errGeneric, "", nil)
		return
	}
	h.client.SendMessage(chatID, "✅ Код отозван.", "", nil)
}

func (h *UpdateHandler) handleCallback(cb *CallbackQuery) {
	if !strings.HasPrefix(cb.Data, "ans:") {
		h.client.AnswerCallbackQuery(cb.ID, "Неверные данные", true)
		return
	}

	questionID, chosenIndex, err := ParseAnswerPayload(cb.Data)
	if err != nil {
		h.client.AnswerCallbackQuery(cb.ID, "Неверные данные", true)
		return
	}

	userID := cb.From.ID
	chatID := userID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	session, err := h.screening.GetSession(userID)
	if err != nil {
		h.client.AnswerCallbackQuery(cb.ID, "Сессия не найдена", true)
		return
	}

	if err := h.screening.SubmitChoice(session.ID, questionID, chosenIndex); err != nil {
		switch {
		case errors.Is(err, services.ErrQuestionNotFound),
			errors.Is(err, services.ErrBadOption),
			errors.Is(err, services.ErrWrongQuestionType):
			h.client.AnswerCallbackQuery(cb.ID, "Неверные данные", true)
		default:
			log.Printf("submit choice %d: %v", userID, err)
			h.client.AnswerCallbackQuery(cb.ID, "Ошибка, попробуйте ещё раз", true)
		}
		return
	}

	if cb.Message != nil {
		text := cb.Message.Text + "\n\n✅ Ответ принят"
		if err := h.client.EditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text, "", nil); err != nil {
			log.Printf("edit answer msg: %v", err)
		}
	}

	h.client.AnswerCallbackQuery(cb.ID, "✅ Ответ принят!", false)
	h.askNext(userID, chatID, session.ID)
}

// ParseAnswerPayload splits an ans:<questionID>:<index> callback payload.
func ParseAnswerPayload(data string) (uint, int, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "ans" {
		return 0, 0, fmt.Errorf("bad payload %q", data)
	}
	questionID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	chosenIndex, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, err
	}
	return uint(questionID), chosenIndex, nil
}
