package framework

// Framework represents a recognized framework or CMS
type Framework string

const (
	None      Framework = ""
	WordPress Framework = "wordpress"
	Drupal    Framework = "drupal"
	Joomla    Framework = "joomla"
	Laravel   Framework = "laravel"
	Symfony   Framework = "symfony"
	Bitrix    Framework = "bitrix"
	Magento   Framework = "magento"
	Django    Framework = "django"
)

var frameworkNames = map[Framework]string{
	WordPress: "WordPress",
	Drupal:    "Drupal",
	Joomla:    "Joomla",
	Laravel:   "Laravel",
	Symfony:   "Symfony",
	Bitrix:    "Bitrix",
	Magento:   "Magento",
	Django:    "Django",
}

// Frameworks returns all frameworks in detection order. Frameworks
// built on top of others come first.
func Frameworks() []Framework {
	return []Framework{WordPress, Drupal, Joomla, Laravel, Symfony, Bitrix, Magento, Django}
}

// Name returns the display name
func (f Framework) Name() string {
	if name, ok := frameworkNames[f]; ok {
		return name
	}
	return "none"
}

// String returns string representation of the framework
func (f Framework) String() string {
	return string(f)
}

// Marker is a file or directory whose presence in an ancestor directory
// indicates a framework
type Marker struct {
	Path     string // Slash-separated, relative to the candidate root; trailing '/' means directory
	Weight   int
	Contains string // Optional content the file must contain
}

// Profile describes how a framework is recognized
type Profile struct {
	Framework Framework
	PathGlobs []string // Matched against the slash-normalized absolute path
	Markers   []Marker
}

// Threshold is the marker weight needed to recognize a framework
const Threshold = 50

var defaultProfiles = []Profile{
	{
		Framework: WordPress,
		PathGlobs: []string{"**/wp-includes/**", "**/wp-admin/**"},
		Markers: []Marker{
			{"wp-config.php", 60, ""},
			{"wp-content/", 40, ""},
			{"wp-admin/", 40, ""},
			{"wp-includes/", 40, ""},
			{"wp-login.php", 30, ""},
		},
	},
	{
		Framework: Drupal,
		PathGlobs: []string{"**/core/lib/Drupal/**", "**/core/modules/*/src/**"},
		Markers: []Marker{
			{"core/lib/Drupal.php", 60, ""},
			{"index.php", 50, "DRUPAL_ROOT"},
			{"sites/default/", 40, ""},
			{"core/", 20, ""},
		},
	},
	{
		Framework: Joomla,
		PathGlobs: []string{"**/libraries/joomla/**", "**/libraries/src/**/Joomla/**"},
		Markers: []Marker{
			{"configuration.php", 60, "JConfig"},
			{"administrator/", 40, ""},
			{"libraries/", 10, ""},
			{"components/", 10, ""},
		},
	},
	{
		Framework: Laravel,
		PathGlobs: []string{"**/vendor/laravel/framework/**", "**/storage/framework/views/*.php"},
		Markers: []Marker{
			{"artisan", 60, ""},
			{"app/Http/Kernel.php", 50, ""},
			{"composer.json", 50, "laravel/framework"},
			{"bootstrap/app.php", 40, ""},
			{"routes/web.php", 30, ""},
		},
	},
	{
		Framework: Symfony,
		PathGlobs: []string{"**/vendor/symfony/**", "**/var/cache/*/twig/**"},
		Markers: []Marker{
			{"symfony.lock", 60, ""},
			{"bin/console", 50, ""},
			{"composer.json", 50, "symfony/framework-bundle"},
			{"config/services.yaml", 40, ""},
			{"src/Kernel.php", 40, ""},
		},
	},
	{
		Framework: Bitrix,
		PathGlobs: []string{"**/bitrix/modules/**", "**/bitrix/components/bitrix/**"},
		Markers: []Marker{
			{"bitrix/modules/", 50, ""},
			{"bitrix/components/", 40, ""},
			{"bitrix/templates/", 30, ""},
			{"bitrix/php_interface/", 30, ""},
			{"bitrix/.settings.php", 30, ""},
		},
	},
	{
		Framework: Magento,
		PathGlobs: []string{"**/vendor/magento/**", "**/app/code/Magento/**"},
		Markers: []Marker{
			{"bin/magento", 60, ""},
			{"app/Mage.php", 60, ""},
			{"app/etc/env.php", 50, ""},
		},
	},
	{
		Framework: Django,
		PathGlobs: []string{"**/site-packages/django/**", "**/django/contrib/**"},
		Markers: []Marker{
			{"manage.py", 60, "DJANGO_SETTINGS_MODULE"},
			{"wsgi.py", 20, ""},
			{"settings.py", 20, ""},
		},
	},
}

// Profiles returns the built-in framework profiles in detection order
func Profiles() []Profile {
	profiles := make([]Profile, len(defaultProfiles))
	copy(profiles, defaultProfiles)
	return profiles
}
