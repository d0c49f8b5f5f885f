package trainer

import "fmt"

const (
	msgNoExample        = "Пример использования отсутствует."
	msgExhausted        = "Все слова отгаданы! Начнем заново?"
	msgAskSource        = "Введите слово на русском, которое вы хотите добавить в словарь:"
	msgAskTarget        = "Теперь введите перевод этого слова на английский:"
	msgAskDelete        = "Введите слово на английском, которое вы хотите удалить"
	msgDuplicate        = "Это слово уже есть в вашем словаре."
	msgEmptyTerm        = "Слово не может быть пустым. Попробуйте еще раз."
	msgStoreUnavailable = "Сервис временно недоступен, попробуйте позже."
)

func welcomeText(firstName string) string {
	if firstName == "" {
		return "Привет! Давай начнем изучение слов. Вот первое слово для тебя:"
	}
	return fmt.Sprintf("Привет, %s! Давай начнем изучение слов. Вот первое слово для тебя:", firstName)
}

func promptText(source string) string {
	return fmt.Sprintf("Выбери перевод слова:\n🇷🇺 %s", source)
}

func correctText(example string) string {
	if example == "" {
		return "Правильно!\n" + msgNoExample
	}
	return "Правильно!\n" + example
}

func retryText(remaining int) string {
	return fmt.Sprintf("Неправильно, у вас осталось %d %s. Попробуйте еще раз.",
		remaining, plural(remaining, "попытка", "попытки", "попыток"))
}

func revealText(answer string) string {
	return fmt.Sprintf("Неправильно, у вас закончились попытки.\nПравильное слово: %s", answer)
}

func echoSourceText(source string) string {
	return fmt.Sprintf("Вы ввели слово: %s", source)
}

func addedText(total int) string {
	return fmt.Sprintf("Ваше слово записано, Вы изучаете уже %d %s", total, plural(total, "слово", "слова", "слов"))
}

func deletedText(target string, total int) string {
	return fmt.Sprintf("Ваше слово '%s' было удалено. Вы изучаете уже %d %s.", target, total, plural(total, "слово", "слова", "слов"))
}

func detachedText(target string, total int) string {
	return fmt.Sprintf("Слово '%s' убрано из вашего словаря. Это общее слово, оно может встретиться снова. Вы изучаете уже %d %s.",
		target, total, plural(total, "слово", "слова", "слов"))
}

func notFoundText(target string) string {
	return fmt.Sprintf("Слово '%s' не найдено в вашем словаре.", target)
}

// plural picks the Russian noun form for n
func plural(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return many
	case n%10 == 1:
		return one
	case n%10 >= 2 && n%10 <= 4:
		return few
	default:
		return many
	}
}
