package main

// UI languages.
const (
	langZH = "zh"
	langEN = "en"
)

var uiLanguages = []string{langZH, langEN}

var uiLanguageNames = map[string]string{
	langZH: "中文",
	langEN: "English",
}

var translations = map[string]map[string]string{
	langZH: {
		"app_title":        "NyaManga 漫画嵌字",
		"settings":         "设置",
		"localize":         "一键嵌字",
		"rewrite":          "仅翻译",
		"api_key":          "API 密钥",
		"base_url":         "API 地址",
		"chat_model":       "对话模型",
		"image_model":      "图像模型",
		"save_config":      "保存配置",
		"select_image":     "选择图片",
		"select_folder":    "选择文件夹",
		"folder_images":    "文件夹中的图片",
		"no_image":         "未选择图片",
		"target_lang":      "目标语言",
		"tone":             "语气/风格",
		"bubble_hint":      "气泡位置提示 (如: 左上)",
		"extra_prompt":     "附加提示词（可选，描述风格/排版/注意事项）",
		"run_localize":     "开始嵌字",
		"original":         "原图",
		"result":           "结果",
		"run_rewrite":      "开始翻译",
		"source_text":      "源文本",
		"source_text_hint": "留空则自动识别并翻译图中文字",
		"enter_text":       "请输入文本",
		"language_switch":  "界面语言 / Language",
		"theme_switch":     "深色模式",
		"processing":       "处理中...",
		"complete":         "完成!",
		"error":            "错误: ",
		"save_success":     "设置已保存!",
		"select_img_first": "请先选择图片",
		"input_group":      "输入",
		"output_group":     "输出",
		"path_input":       "手动输入图片路径",
		"load_path":        "加载路径",
		"save_result":      "保存结果",
		"saved_to":         "已保存到 ",
		"run_batch":        "整个文件夹嵌字",
		"batch_done":       "批量完成: 成功 %d, 失败 %d, 取消 %d",
		"canceled":         "已取消",
		"key_saved":        "已保存在系统钥匙串",
		"key_not_saved":    "未保存",
		"key_from_env":     "使用环境变量 ",
		"delete_key":       "删除密钥",
		"no_key":           "缺少 API 密钥，请在设置中填写。",
		"concurrency":      "并发数",
	},
	langEN: {
		"app_title":        "NyaManga UI",
		"settings":         "Settings",
		"localize":         "Localize",
		"rewrite":          "Rewrite",
		"api_key":          "API Key",
		"base_url":         "Base URL",
		"chat_model":       "Chat Model",
		"image_model":      "Image Model",
		"save_config":      "Save Configuration",
		"select_image":     "Select Image",
		"select_folder":    "Select Folder",
		"folder_images":    "Images in folder",
		"no_image":         "No image selected",
		"target_lang":      "Target Language",
		"tone":             "Tone",
		"bubble_hint":      "Bubble Hint (e.g. 'top-left')",
		"extra_prompt":     "Extra prompt (style/layout guidance, optional)",
		"run_localize":     "Run Localize",
		"original":         "Original",
		"result":           "Result",
		"run_rewrite":      "Rewrite",
		"source_text":      "Source Text",
		"source_text_hint": "Leave empty to let the model read and translate the panel",
		"enter_text":       "Please enter text",
		"language_switch":  "Language",
		"theme_switch":     "Dark Mode",
		"processing":       "Processing...",
		"complete":         "Complete!",
		"error":            "Error: ",
		"save_success":     "Settings saved!",
		"select_img_first": "Please select an image first",
		"input_group":      "Input",
		"output_group":     "Output",
		"path_input":       "Manual image path",
		"load_path":        "Load path",
		"save_result":      "Save Result",
		"saved_to":         "Saved to ",
		"run_batch":        "Localize Folder",
		"batch_done":       "Batch done: %d succeeded, %d failed, %d canceled",
		"canceled":         "Canceled",
		"key_saved":        "Saved in keychain",
		"key_not_saved":    "Not saved",
		"key_from_env":     "Using environment variable ",
		"delete_key":       "Delete Key",
		"no_key":           "API key is required. Please set it in Settings.",
		"concurrency":      "Concurrency",
	},
}

// tr looks key up in lang, then in Chinese, then returns the key itself.
func tr(lang, key string) string {
	if s, ok := translations[lang][key]; ok {
		return s
	}
	if s, ok := translations[langZH][key]; ok {
		return s
	}
	return key
}

func normalizeUILang(lang string) string {
	if _, ok := translations[lang]; ok {
		return lang
	}
	return langZH
}
