package bot

import (
	categorymodels "videobot-backend/internal/features/category/models"
	"videobot-backend/internal/platform/telegram"
)

func startKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "🎬 Get Video", CallbackData: "getvideo"},
			},
		},
	}
}

func navigationKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "⬅️ Previous", CallbackData: "prev"},
				{Text: "➡️ Next", CallbackData: "next"},
			},
			{
				{Text: "🎲 Random", CallbackData: "getvideo"},
				{Text: "📂 Category", CallbackData: "show_categories"},
			},
		},
	}
}

func categoriesKeyboard(categories []*categorymodels.Category) *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: c.Name, CallbackData: "category_" + c.Name},
		})
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}
