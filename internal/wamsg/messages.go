package wamsg

// Reactions attached to inbound messages to signal processing state.
const (
	ReactionBookmark   = "🔖"
	ReactionError      = "✖️"
	ReactionProcessing = "⏳"
	ReactionSuccess    = "👍"
	ReactionNone       = ""
)

// User-facing text.
const (
	TextHowToAdd = "כדי להוסיף קופון חדש, פשוט שלח לי:\n\n1️⃣ *תמונה* של הקופון\n2️⃣ *קובץ PDF* שמכיל את הקופון\n3️⃣ *טקסט* עם פרטי הקופון\n\nאני אזהה אוטומטית את הפרטים ואשמור אותו עבורך! 📱✨"

	TextSharedCouponNotFound = "אופס.. זה מביך 😳. אני לא מוצא את הקופון הזה אצלי\nיכול להיות שהוא כבר נוצל או שהופסק השיתוף?🤔"

	TextCouponNotFound = "אופס.. זה מביך 😳. אני לא מוצא את הקופון הזה אצלי\nיכול להיות שכבר ניצלת אותו?🤔"

	TextMediaError = "אופס, לא הצלחתי לעבד את הקובץ. נסה שוב או שלח את הקופון כטקסט."

	TextPairingDeclined = "בחירתך התקבלה. לא יתבצע שיתוף קופונים."

	TextOriginalCoupon = "הנה הקופון המקורי ששלחת לי"

	TextUpdatePrompt = "מה תרצה לעדכן? שלח הודעה בפורמט חופשי או לחץ ❌ לביטול"

	// TextUpdateRejected is formatted with the example lines.
	TextUpdateRejected = "לא הצלחתי להבין את הבקשה לעדכון הקופון.\n\nאפשר לנסות לנסח שוב, למשל:\n%s\nאו לחץ ❌ כדי לבטל את העריכה."

	DefaultUpdateExamples = "- “שנה את התוקף ל־1.8.25”\n- “עדכן את שם החנות ל־Fox”\n"

	welcomeNewUser = "היי! 😊 כאן אפשר לשמור ולנהל קופונים או שוברים שקיבלת — מטקסט, תמונה או קובץ.\nאפשר גם לשתף קופונים עם מישהו קבוע, או רק לשתף שובר בודד. אני אזכיר לפני שפג התוקף ואשמור על הסדר עבורך."

	welcomeReturningUser = "היי שוב! 😊  \n\nכבר שמרת כמה קופונים — מעולה!\nרוצה לראות מה יש לך? או אולי לשתף מישהו מהקופונים?\n\nאפשר לבחור מהכפתורים כאן למטה, או פשוט לשלוח קופון חדש ואני אזהה אותו לבד ✨"

	listHeader = "📋 רשימת הקופונים שלך:"
	listFooter = "בחר קופון כדי להציג או לבצע פעולה"

	unknownStore = "חנות לא ידועה"
)
