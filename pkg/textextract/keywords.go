package textextract

// headingKeywords are the document-type words that open a gazette heading, in
// both singular and plural form. The keyword trimmer treats a line starting
// with one of these as the beginning of the next document.
var headingKeywords = []string{
	"أمر",
	"منشور",
	"منشور وزاري مشترك",
	"لائحة",
	"مداولة",
	"مداولة م-أ-للدولة",
	"مرسوم",
	"مرسوم تنفيذي",
	"مرسوم تشريعي",
	"مرسوم رئاسي",
	"مقرر",
	"مقرر وزاري مشترك",
	"إعلان",
	"نظام",
	"اتفاقية",
	"تصريح",
	"تقرير",
	"تعليمة",
	"تعليمة وزارية مشتركة",
	"جدول",
	"رأي",
	"قانون",
	"قانون عضوي",
	"قرار",
	"قرار ولائي",
	"قرار وزاري مشترك",
	"أوامر",
	"مناشير",
	"مناشير وزارية مشتركة",
	"لوائح",
	"مداولات",
	"مداولات م-أ-للدولة",
	"مراسيم",
	"مراسيم تنفيذية",
	"مراسيم تشريعية",
	"مراسيم رئاسية",
	"مقررات",
	"مقررات وزارية مشتركة",
	"إعلانات",
	"نظم",
	"اتفاقيات",
	"تصاريح",
	"تقارير",
	"تعليمات",
	"تعليمات وزارية مشتركة",
	"جداول",
	"آراء",
	"قوانين",
	"قوانين عضوية",
	"قرارات",
	"قرارات ولائية",
	"قرارات وزارية مشتركة",
}
