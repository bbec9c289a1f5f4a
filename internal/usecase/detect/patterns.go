package detect

// Лексиконы закрыты: матчер сверяет целые токены заголовка с этими
// списками и ничего не извлекает за их пределами.

// provinces — 81 официальная провинция Турции плюс ASCII-варианты
// написания без турецких букв.
var provinces = []string{
	"adana", "adıyaman", "afyonkarahisar", "ağrı", "aksaray", "amasya", "ankara",
	"antalya", "ardahan", "artvin", "aydın", "balıkesir", "bartın", "batman",
	"bayburt", "bilecik", "bingöl", "bitlis", "bolu", "burdur", "bursa",
	"çanakkale", "çankırı", "çorum", "denizli", "diyarbakır", "düzce", "edirne",
	"elazığ", "erzincan", "erzurum", "eskişehir", "gaziantep", "giresun",
	"gümüşhane", "hakkâri", "hatay", "ığdır", "isparta", "istanbul", "i̇stanbul",
	"izmir", "i̇zmir", "kahramanmaraş", "karabük", "karaman", "kars", "kastamonu",
	"kayseri", "kilis", "kırıkkale", "kırklareli", "kırşehir", "kocaeli", "konya",
	"kütahya", "malatya", "manisa", "mardin", "mersin", "muğla", "muş", "nevşehir",
	"niğde", "ordu", "osmaniye", "rize", "sakarya", "samsun", "siirt", "sinop",
	"sivas", "şanlıurfa", "şırnak", "tekirdağ", "tokat", "trabzon", "tunceli",
	"uşak", "van", "yalova", "yozgat", "zonguldak",
	// ASCII-варианты
	"adiyaman", "afyon", "agri", "aydin", "balikesir", "bartin",
	"bingol", "canakkale", "cankiri", "corum", "diyarbakir", "duzce", "elazig",
	"gumushane", "hakkari", "igdir", "kahramanmaras", "karabuk", "kirikkale",
	"kirklareli", "kirsehir", "kutahya", "mugla", "mus", "nigde", "sanliurfa",
	"sirnak", "tekirdag",
}

// months — турецкие названия месяцев с ASCII-вариантами.
var months = map[string]int{
	"ocak": 1, "şubat": 2, "subat": 2, "mart": 3, "nisan": 4,
	"mayıs": 5, "mayis": 5, "haziran": 6, "temmuz": 7,
	"ağustos": 8, "agustos": 8, "eylül": 9, "eylul": 9,
	"ekim": 10, "kasım": 11, "kasim": 11, "aralık": 12, "aralik": 12,
}

// keywords — слова, повышающие уверенность совпадения до high.
var keywords = []string{"deprem", "depremi", "sarsıntı", "sarsinti", "zelzele"}

var (
	provinceSet = make(map[string]struct{}, len(provinces))
	keywordSet  = make(map[string]struct{}, len(keywords))
)

func init() {
	for _, p := range provinces {
		provinceSet[p] = struct{}{}
	}
	for _, k := range keywords {
		keywordSet[k] = struct{}{}
	}
}
