package collector

import (
	"log"

	"neuralnews/internal/storage"
)

// defaultSources are the feeds seeded on first start.
var defaultSources = []storage.Source{
	{Name: "NTV", URL: "https://www.ntv.com.tr/son-dakika.rss", Type: "rss"},
	{Name: "Sözcü", URL: "https://www.sozcu.com.tr/rss/tum-haberler.xml", Type: "rss"},
	{Name: "Hürriyet", URL: "https://www.hurriyet.com.tr/rss/gundem", Type: "rss"},
	{Name: "CNN Türk", URL: "https://www.cnnturk.com/feed/rss/all/news", Type: "rss"},
	{Name: "TRT Haber", URL: "https://www.trthaber.com/sondakika.rss", Type: "rss"},
	{Name: "Habertürk", URL: "https://www.haberturk.com/rss/manset.xml", Type: "rss"},
	{Name: "BBC Türkçe", URL: "https://feeds.bbci.co.uk/turkce/rss.xml", Type: "rss"},
	{Name: "Onedio", URL: "https://onedio.com/support/rss.xml", Type: "rss"},
	{Name: "Webtekno", URL: "https://www.webtekno.com/rss.xml", Type: "rss"},
	{Name: "ShiftDelete", URL: "https://shiftdelete.net/feed", Type: "rss"},
}

// SeedDefaultSources inserts up to count built-in sources, skipping any whose
// name or URL already exists. A negative count seeds the whole list. The
// pre-check is advisory; there is no uniqueness constraint behind it.
func SeedDefaultSources(store *storage.Store, count int) {
	log.Println("checking default sources...")

	list := defaultSources
	if count >= 0 && count < len(list) {
		list = list[:count]
	}

	for _, src := range list {
		exists, err := store.SourceExists(src.Name, src.URL)
		if err != nil {
			log.Printf("seed check %s failed: %v", src.Name, err)
			continue
		}
		if exists {
			continue
		}

		s := src
		s.IsActive = true
		if err := store.CreateSource(&s); err != nil {
			log.Printf("seed %s failed: %v", src.Name, err)
			continue
		}
		log.Printf("seeded source %s", src.Name)
	}
}
