package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultAIBackend             = "openai"
	DefaultAIBaseURL             = "https://api.groq.com/openai/v1"
	DefaultAIModel               = "llama-3.3-70b-versatile"
	DefaultAITemperature         = 0.8
	DefaultAITimeout             = 30 * time.Second
	DefaultAIFollowUpMaxTokens   = 50
	DefaultAIEvaluationMaxTokens = 150
	DefaultAIBreakerMaxFailures  = 5
	DefaultAIBreakerCooldown     = time.Minute

	DefaultDBPath = "checkin.db"

	DefaultTelegramMode = "polling"

	DefaultTimezone = "UTC"

	DefaultCheckinEpoch           = "2025-01-01"
	DefaultQuestion               = "What did you learn today?"
	DefaultMissedQuestion         = "Missed"
	DefaultMissedAnswer           = "No response"
	DefaultMinEvaluationDays      = 2
	DefaultMinEvaluationResponses = 3

	DefaultHTTPAddr        = ":8080"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultAPIAddr           = ":5000"
	DefaultAPIPageSize       = 20
	DefaultAPIRequestTimeout = 15 * time.Second

	DefaultMongoDatabase       = "virevo"
	DefaultMongoConnectTimeout = 10 * time.Second

	DefaultRedisAddr          = "localhost:6379"
	DefaultRedisRetryInterval = 5 * time.Second

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultOTPTTL     = 5 * time.Minute
	DefaultBcryptCost = 10

	DefaultSMTPPort = 587
	DefaultSMTPTLS  = "mandatory"

	DefaultMetricsNamespace = "virevo"
)

// DefaultFollowUpPrompt steers the conversational follow-up question.
const DefaultFollowUpPrompt = `You are a friendly, engaging assistant that helps users reflect on their daily progress.
- Make responses natural, fun, and engaging. Use humor and emoji to keep things lively! 😄
- If they mention a tool or skill, ask which part of it they worked on. 🎨
- If they say they learned something but don't specify, ask what the coolest thing they learned today was. 🤔
- If they did nothing, say: "No worries! Tomorrow is another shot at awesomeness! 🚀"
- If they dodge the question, tease them gently about being a mystery today. 🕵️
- If they already answered, don't repeat the same question.
- If disengaged, shift topics: "Anything exciting happen today besides work? 🎉"
- Keep responses under 25 words for quick, snappy convos.`

// DefaultEvaluationPrompt asks for a scored review of a check-in transcript.
const DefaultEvaluationPrompt = `You're an expert at evaluating daily learning and work performance. Critically analyze the user's responses and provide:
- A **score out of 100**
- Key **areas for improvement**
- Positive feedback if applicable
- Mention if the user was **lazy or inconsistent**
- Mention the **number of missed days** in the range
- Format the response in a **well-spaced readable text format with emojis and engagement.**`

// DefaultOpeningQuestions is the pool the first question of a day is drawn from.
var DefaultOpeningQuestions = []string{
	"Hello! What did you learn today?",
	"Hey there! 👋 What's one new thing you picked up today?",
	"Hi! 📚 What did you work on today?",
	"Good to see you! What was the highlight of your learning today? ✨",
	"Hello! 🚀 What progress did you make today?",
}

// DefaultWeekendQuestions are appended to the daily broadcast on Saturday and Sunday.
var DefaultWeekendQuestions = []string{
	"It's the weekend! 🎉 Did you get any time for a side project?",
	"Weekend check: did you rest, or sneak in some practice? 😄",
	"Any fun plans to recharge this weekend? 🌴",
}

// DefaultFarewells are the replies to a sign-off message.
var DefaultFarewells = []string{
	"Alright! Keep up the great work! 🚀 See you soon! 👋",
	"Have a wonderful day! 😊",
	"Take care and keep learning! 📚",
	"Until next time! 👋",
	"Wishing you all the best! 🌟",
	"Stay positive and keep pushing forward! 💪",
	"Have a productive day! 💼",
	"Enjoy your time! 😊",
	"Take care and stay safe! 🌈",
	"Best wishes! 🍀",
}

// DefaultGoodbyePhrases trigger a farewell when found anywhere in a message.
var DefaultGoodbyePhrases = []string{
	"bye", "goodbye", "see you", "talk later", "thanks", "thank you", "take care",
	"peace out", "catch you later", "adios", "adieu", "ciao", "later",
}

// DefaultMessages are the built-in bot texts.
var DefaultMessages = MessagesConfig{
	Welcome:          "👋 Welcome! I'll check in with you every day to hear what you learned. Send `perf DD-MM to DD-MM` any time for a performance summary.",
	Help:             "ℹ️ Just reply to my daily question in your own words.\n\nPerformance summary: `perf 10-3 to 20-4`, or `perf 10-3` for the 7 days ending on 10 March.",
	FollowUpError:    "Oops! Something went wrong. 🤖💥 Try again in a bit!",
	FollowUpFallback: "I'm unable to process this right now. 😕",
	EvaluationError:  "There was an error processing the request. 🚨",
	UserNotFound:     "User not found. ❌",
	NoResponses:      "No responses found in this date range. 📭",
	NotEnoughData:    "Not enough data yet to evaluate your performance. 📉 Keep checking in for a few more days!",
	InvalidRange:     "⚠️ Invalid date! Use `perf DD-MM to DD-MM` (Example: `perf 10-3 to 20-4`)",
	Fetching:         "⏳ Fetching performance from *%s* to *%s*...",
	SummaryTemplate:  "🔹 *Performance Summary* 🔹\n\n%s\n\n📌 Keep up the effort! 💪",
	MissedNotice:     "You missed today's check-in! Make sure to answer tomorrow. ✅",
}

// DefaultTasks are the scheduled jobs enabled out of the box.
var DefaultTasks = map[string]TaskConfig{
	"daily_checkin":   {Enabled: true, Schedule: "30 14 * * *"},
	"missed_checkin":  {Enabled: true, Schedule: "29 18 * * *"},
	"sql_maintenance": {Enabled: true, Schedule: "0 3 * * 0"},
	"keep_alive":      {Enabled: false, Schedule: "*/10 * * * *"},
}
