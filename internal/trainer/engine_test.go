package trainer

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/example/wordcards/internal/database"
	"github.com/example/wordcards/internal/quiz"
	"github.com/example/wordcards/internal/session"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type sentMessage struct {
	chatID  int64
	text    string
	options []string
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (c *fakeChannel) SendPrompt(_ context.Context, chatID int64, text string, options []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text, options: options})
	return nil
}

func (c *fakeChannel) take() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.sent
	c.sent = nil
	return out
}

func texts(msgs []sentMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.text
	}
	return out
}

var anna = Conversation{UserID: 1001, ChatID: 1001, FirstName: "Анна"}

type EngineSuite struct {
	suite.Suite
	ctx      context.Context
	db       *sqlx.DB
	store    *database.Store
	sessions *session.MemoryStore
	channel  *fakeChannel
	engine   *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.Open(s.ctx, database.Config{Driver: database.DriverSQLite, Path: ":memory:"})
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(s.ctx, db))
	s.T().Cleanup(func() { db.Close() })

	s.db = db
	s.store = database.NewStore(db)
	s.sessions = session.NewMemoryStore(nil)
	s.channel = &fakeChannel{}
	s.engine = New(Config{
		Catalog:  s.store,
		Progress: s.store,
		Answers:  quiz.NewSelector(s.store, rand.New(rand.NewSource(7))),
		Sessions: s.sessions,
		Channel:  s.channel,
		Logger:   zerolog.Nop(),
	})
}

func (s *EngineSuite) seed(words ...database.SeedWord) {
	_, err := database.Seed(s.ctx, s.db, words)
	s.Require().NoError(err)
}

func (s *EngineSuite) state(conv Conversation) *session.State {
	st, err := s.sessions.Get(s.ctx, conv.key())
	s.Require().NoError(err)
	s.Require().NotNil(st)
	return st
}

func (s *EngineSuite) send(conv Conversation, text string) []sentMessage {
	s.Require().NoError(s.engine.HandleMessage(s.ctx, conv, text))
	return s.channel.take()
}

func (s *EngineSuite) start(conv Conversation) []sentMessage {
	s.Require().NoError(s.engine.HandleStart(s.ctx, conv))
	return s.channel.take()
}

// requirePrompt checks msg is a word prompt for the presented state
func (s *EngineSuite) requirePrompt(msg sentMessage, st *session.State) {
	s.Require().Equal(promptText(st.SourceTerm), msg.text)
	s.Require().GreaterOrEqual(len(msg.options), len(controlOptions())+1)

	n := len(msg.options) - len(controlOptions())
	s.Equal(controlOptions(), msg.options[n:])
	s.Equal(st.Options, msg.options[:n])
	s.Contains(msg.options[:n], st.Answer)
}

func (s *EngineSuite) TestStartGreetsAndPresents() {
	s.seed(database.DefaultWords()...)

	msgs := s.start(anna)
	s.Require().Len(msgs, 2)
	s.Equal("Привет, Анна! Давай начнем изучение слов. Вот первое слово для тебя:", msgs[0].text)
	s.Nil(msgs[0].options)

	st := s.state(anna)
	s.Equal(session.StepPresenting, st.Step)
	s.Equal(session.InitialAttempts, st.AttemptsLeft)
	s.requirePrompt(msgs[1], st)

	// Four distinct options containing the answer exactly once
	s.Len(st.Options, quiz.MaxOptions)
	seen := map[string]bool{}
	for _, o := range st.Options {
		s.False(seen[o], "duplicate option %q", o)
		seen[o] = true
	}

	n, err := s.store.CountAssigned(s.ctx, anna.UserID)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *EngineSuite) TestGreetingWithoutName() {
	s.seed(database.DefaultWords()...)

	msgs := s.start(Conversation{UserID: 5, ChatID: 5})
	s.Require().NotEmpty(msgs)
	s.Equal("Привет! Давай начнем изучение слов. Вот первое слово для тебя:", msgs[0].text)
}

func (s *EngineSuite) TestCorrectAnswer() {
	s.seed(database.DefaultWords()...)
	s.start(anna)
	first := s.state(anna)

	msgs := s.send(anna, first.Answer)
	s.Require().Len(msgs, 2)
	s.Equal(correctText(first.Example), msgs[0].text)

	next := s.state(anna)
	s.NotEqual(first.WordID, next.WordID)
	s.requirePrompt(msgs[1], next)

	n, err := s.store.CountGuessed(s.ctx, anna.UserID)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *EngineSuite) TestWrongAnswersRevealOnThird() {
	s.seed(database.DefaultWords()...)
	s.start(anna)
	first := s.state(anna)

	msgs := s.send(anna, "definitely wrong")
	s.Equal([]string{"Неправильно, у вас осталось 2 попытки. Попробуйте еще раз."}, texts(msgs))
	s.Equal(1, s.state(anna).AttemptsLeft)

	msgs = s.send(anna, "still wrong")
	s.Equal([]string{"Неправильно, у вас осталось 1 попытка. Попробуйте еще раз."}, texts(msgs))
	s.Equal(0, s.state(anna).AttemptsLeft)

	msgs = s.send(anna, "wrong again")
	s.Require().Len(msgs, 2)
	s.Equal("Неправильно, у вас закончились попытки.\nПравильное слово: "+first.Answer, msgs[0].text)

	next := s.state(anna)
	s.Equal(session.InitialAttempts, next.AttemptsLeft)
	s.requirePrompt(msgs[1], next)

	n, err := s.store.CountGuessed(s.ctx, anna.UserID)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *EngineSuite) TestSingleWordCatalog() {
	s.seed(database.SeedWord{Source: "Мир", Target: "World", Example: "The world is big."})

	msgs := s.start(anna)
	s.Require().Len(msgs, 2)
	s.Equal("Выбери перевод слова:\n🇷🇺 Мир", msgs[1].text)
	s.Equal([]string{"World", CommandNext, CommandAddWord, CommandDeleteWord}, msgs[1].options)

	msgs = s.send(anna, "World")
	s.Require().Len(msgs, 2)
	s.Equal("Правильно!\nThe world is big.", msgs[0].text)
	s.Equal(msgExhausted, msgs[1].text)
	s.Equal([]string{CommandStartOver}, msgs[1].options)
	s.Equal(session.StepExhausted, s.state(anna).Step)

	// Anything but a command repeats the restart offer
	msgs = s.send(anna, "hello")
	s.Require().Len(msgs, 1)
	s.Equal(msgExhausted, msgs[0].text)

	msgs = s.send(anna, CommandStartOver)
	s.Require().Len(msgs, 2)
	s.Equal(welcomeText(anna.FirstName), msgs[0].text)
	s.Equal(session.StepPresenting, s.state(anna).Step)
}

func (s *EngineSuite) TestMissingExample() {
	s.seed(database.SeedWord{Source: "Мир", Target: "World"})
	s.start(anna)

	msgs := s.send(anna, "World")
	s.Require().NotEmpty(msgs)
	s.Equal("Правильно!\nПример использования отсутствует.", msgs[0].text)
}

func (s *EngineSuite) TestCommandBeatsAnswer() {
	s.seed(database.DefaultWords()...)
	s.start(anna)
	first := s.state(anna)

	msgs := s.send(anna, CommandNext)
	s.Require().Len(msgs, 1)
	next := s.state(anna)
	s.requirePrompt(msgs[0], next)
	s.Equal(session.InitialAttempts, next.AttemptsLeft)

	// Skipping is not guessing
	n, err := s.store.CountGuessed(s.ctx, anna.UserID)
	s.Require().NoError(err)
	s.Zero(n)
	s.NotZero(first.WordID)
}

func (s *EngineSuite) TestSlashCommandsRestart() {
	s.seed(database.DefaultWords()...)
	s.start(anna)

	for _, cmd := range []string{"/start", "/cards", "/start@wordcards_bot"} {
		msgs := s.send(anna, cmd)
		s.Require().Len(msgs, 2, cmd)
		s.Equal(welcomeText(anna.FirstName), msgs[0].text)
	}
}

func (s *EngineSuite) TestIdleTextStarts() {
	s.seed(database.DefaultWords()...)

	msgs := s.send(anna, "привет")
	s.Require().Len(msgs, 2)
	s.Equal(welcomeText(anna.FirstName), msgs[0].text)
	s.Equal(session.StepPresenting, s.state(anna).Step)
}

func (s *EngineSuite) TestAddWord() {
	s.seed(database.DefaultWords()...)
	s.start(anna)

	msgs := s.send(anna, CommandAddWord)
	s.Equal([]string{msgAskSource}, texts(msgs))
	s.Equal(session.StepAwaitSource, s.state(anna).Step)

	msgs = s.send(anna, "Дом")
	s.Equal([]string{"Вы ввели слово: Дом", msgAskTarget}, texts(msgs))
	st := s.state(anna)
	s.Equal(session.StepAwaitTarget, st.Step)
	s.Equal("Дом", st.PendingSource)

	msgs = s.send(anna, "House")
	s.Require().Len(msgs, 2)
	s.Equal("Ваше слово записано, Вы изучаете уже 2 слова", msgs[0].text)
	s.requirePrompt(msgs[1], s.state(anna))
	s.Empty(s.state(anna).PendingSource)

	word, err := s.store.FindAssignedByTarget(s.ctx, anna.UserID, "house")
	s.Require().NoError(err)
	s.True(word.OwnedBy(anna.UserID))
}

func (s *EngineSuite) TestAddDuplicateWord() {
	s.seed(database.DefaultWords()...)
	s.start(anna)

	s.send(anna, CommandAddWord)
	s.send(anna, "Дом")
	s.send(anna, "House")

	before, err := s.store.Count(s.ctx)
	s.Require().NoError(err)

	s.send(anna, CommandAddWord)
	s.send(anna, "дом")
	msgs := s.send(anna, "HOUSE")
	s.Require().Len(msgs, 2)
	s.Equal(msgDuplicate, msgs[0].text)
	s.requirePrompt(msgs[1], s.state(anna))

	after, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *EngineSuite) TestAddSeededPairIsDuplicate() {
	s.seed(database.DefaultWords()...)
	s.start(anna)

	s.send(anna, CommandAddWord)
	s.send(anna, "мир")
	msgs := s.send(anna, "world")
	s.Require().NotEmpty(msgs)
	s.Equal(msgDuplicate, msgs[0].text)
}

func (s *EngineSuite) TestEmptyTermIsRejected() {
	s.seed(database.DefaultWords()...)
	s.start(anna)

	s.send(anna, CommandAddWord)
	msgs := s.send(anna, "   ")
	s.Equal([]string{msgEmptyTerm}, texts(msgs))
	s.Equal(session.StepAwaitSource, s.state(anna).Step)
}

func (s *EngineSuite) TestCommandInterruptsEditor() {
	s.seed(database.DefaultWords()...)
	s.start(anna)

	s.send(anna, CommandAddWord)
	s.send(anna, "Дом")
	before, err := s.store.Count(s.ctx)
	s.Require().NoError(err)

	msgs := s.send(anna, CommandNext)
	s.Require().Len(msgs, 1)
	st := s.state(anna)
	s.Equal(session.StepPresenting, st.Step)
	s.requirePrompt(msgs[0], st)

	after, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(before, after)

	s.send(anna, CommandDeleteWord)
	msgs = s.send(anna, CommandAddWord)
	s.Equal([]string{msgAskSource}, texts(msgs))
}

func (s *EngineSuite) TestDeleteNeverLearnedWord() {
	s.seed(
		database.SeedWord{Source: "Мир", Target: "World"},
		database.SeedWord{Source: "Любовь", Target: "Love"},
	)
	s.start(anna)

	// Only one of the two words is assigned after the first prompt
	missing := "Love"
	if s.state(anna).Answer == "Love" {
		missing = "World"
	}

	s.send(anna, CommandDeleteWord)
	msgs := s.send(anna, missing)
	s.Require().Len(msgs, 2)
	s.Equal("Слово '"+missing+"' не найдено в вашем словаре.", msgs[0].text)

	total, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, total)
}

func (s *EngineSuite) TestDeleteOwnedWord() {
	// One seeded word keeps the assignment count predictable
	s.seed(database.SeedWord{Source: "Мир", Target: "World"})
	s.start(anna)

	s.send(anna, CommandAddWord)
	s.send(anna, "Дом")
	s.send(anna, "House")

	msgs := s.send(anna, CommandDeleteWord)
	s.Equal([]string{msgAskDelete}, texts(msgs))
	s.Equal(session.StepAwaitDelete, s.state(anna).Step)

	msgs = s.send(anna, "house")
	s.Require().Len(msgs, 2)
	s.Equal("Ваше слово 'House' было удалено. Вы изучаете уже 1 слово.", msgs[0].text)
	s.requirePrompt(msgs[1], s.state(anna))

	_, err := s.store.FindAssignedByTarget(s.ctx, anna.UserID, "House")
	s.ErrorIs(err, database.ErrWordNotFound)
}

func (s *EngineSuite) TestDeleteSharedWordDetaches() {
	s.seed(database.SeedWord{Source: "Мир", Target: "World"})
	s.start(anna)

	s.send(anna, CommandDeleteWord)
	msgs := s.send(anna, " world ")
	s.Require().Len(msgs, 2)
	s.Equal(detachedText("World", 0), msgs[0].text)
	s.NotContains(msgs[0].text, "было удалено")

	// The shared word stays in the catalog and comes back
	s.requirePrompt(msgs[1], s.state(anna))
	s.Equal("World", s.state(anna).Answer)

	total, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, total)
}

func (s *EngineSuite) TestAnswerMatchesExactText() {
	s.seed(database.SeedWord{Source: "Мир", Target: "World"})

	for _, reply := range []string{" World", "World ", "world"} {
		s.start(anna)
		msgs := s.send(anna, reply)
		s.Equal([]string{retryText(2)}, texts(msgs), reply)
	}

	n, err := s.store.CountGuessed(s.ctx, anna.UserID)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *EngineSuite) TestStoreFailureKeepsState() {
	s.seed(database.DefaultWords()...)
	s.start(anna)
	before := s.state(anna)

	s.Require().NoError(s.db.Close())

	err := s.engine.HandleMessage(s.ctx, anna, before.Answer)
	s.Require().Error(err)
	s.ErrorIs(err, database.ErrStoreUnavailable)

	msgs := s.channel.take()
	s.Equal([]string{msgStoreUnavailable}, texts(msgs))

	after := s.state(anna)
	s.Equal(before.WordID, after.WordID)
	s.Equal(before.AttemptsLeft, after.AttemptsLeft)
	s.Equal(before.Step, after.Step)
}

func (s *EngineSuite) TestDeliveryFailure() {
	s.seed(database.DefaultWords()...)
	s.channel.err = errors.New("telegram down")

	err := s.engine.HandleStart(s.ctx, anna)
	s.Require().Error(err)
	s.NotErrorIs(err, database.ErrStoreUnavailable)
	s.Empty(s.channel.take())
}

func (s *EngineSuite) TestUsersAreIndependent() {
	s.seed(database.DefaultWords()...)
	bob := Conversation{UserID: 2002, ChatID: 2002, FirstName: "Bob"}

	var wg sync.WaitGroup
	for _, conv := range []Conversation{anna, bob} {
		wg.Add(1)
		go func(conv Conversation) {
			defer wg.Done()
			assert.NoError(s.T(), s.engine.HandleStart(s.ctx, conv))
		}(conv)
	}
	wg.Wait()

	s.send(anna, s.state(anna).Answer)

	guessedAnna, err := s.store.CountGuessed(s.ctx, anna.UserID)
	s.Require().NoError(err)
	s.Equal(1, guessedAnna)

	guessedBob, err := s.store.CountGuessed(s.ctx, bob.UserID)
	s.Require().NoError(err)
	s.Zero(guessedBob)
	s.Equal(session.StepPresenting, s.state(bob).Step)
}

func TestParseCommand(t *testing.T) {
	cases := map[string]command{
		CommandStartOver:       cmdStart,
		CommandNext:            cmdNext,
		CommandAddWord:         cmdAddWord,
		CommandDeleteWord:      cmdDeleteWord,
		"/start":               cmdStart,
		"/cards":               cmdStart,
		"/start@wordcards_bot": cmdStart,
		"/start now":           cmdStart,
		"/help":                cmdNone,
		"World":                cmdNone,
		"":                     cmdNone,
	}
	for text, want := range cases {
		assert.Equal(t, want, parseCommand(text), text)
	}

	// Labels match exactly
	assert.Equal(t, cmdNone, parseCommand("Дальше"))
	assert.Equal(t, cmdNone, parseCommand(" "+CommandNext))
}

func TestPlural(t *testing.T) {
	forms := func(n int) string { return plural(n, "слово", "слова", "слов") }

	assert.Equal(t, "слово", forms(1))
	assert.Equal(t, "слово", forms(21))
	assert.Equal(t, "слова", forms(3))
	assert.Equal(t, "слов", forms(5))
	assert.Equal(t, "слов", forms(11))
	assert.Equal(t, "слов", forms(112))
	assert.Equal(t, "слов", forms(0))
}

func TestRetryTextAgreesWithCount(t *testing.T) {
	require.True(t, strings.Contains(retryText(2), "2 попытки"))
	require.True(t, strings.Contains(retryText(1), "1 попытка"))
}
