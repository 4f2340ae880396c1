package config

import (
	"fmt"
	"strconv"

	db "github.com/eliote-geeks/reveilartist-sub003/db"
	monetbil "github.com/eliote-geeks/reveilartist-sub003/monetbil"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Configuration struct {
	JWTSecret      string `env:"JWT_SECRET,required"`
	Port           int    `env:"PORT,default=3001"`
	Timeout        int    `env:"TIMEOUT,default=30"`
	BackendBaseURL string `env:"BACKEND_BASE_URL,required"`
	FrontBaseURL   string `env:"FRONT_BASE_URL,required"`
	DB             db.Storage
	SQL            database
	AwsSMTP        awsSMTP
	AwsS3          awsS3
	Monetbil       monetbilConf
	Mail           mail
	Environment    string `env:"ENVIRONMENT,default=development"`
	AppName        string `env:"APP_NAME,default=reveilartist"`
}

type database struct {
	URL            string `env:"DATA_BASE_URL,required"`
	Name           string `env:"DATA_BASE_NAME,required"`
	User           string `env:"DATA_BASE_USER,required"`
	Port           int    `env:"DATA_BASE_PORT,default=3306"`
	Password       string `env:"DATA_BASE_PASSWORD,required"`
	OpenConnection int    `env:"DATA_BASE_MAX_OPEN_CONNECTION,default=5"`
}

type awsSMTP struct {
	SMTPHost     string `env:"SMTP_HOST,required"`
	SMTPPort     int    `env:"SMTP_PORT,required"`
	SMTPUser     string `env:"SMTP_USER,required"`
	SMTPPassword string `env:"SMTP_PASSWORD,required"`
}

type monetbilConf struct {
	ServiceKey    string `env:"MONETBIL_SERVICE_KEY,required"`
	ServiceSecret string `env:"MONETBIL_SERVICE_SECRET,required"`
	WidgetBaseURL string `env:"MONETBIL_WIDGET_BASE_URL,default=https://www.monetbil.com/widget"`
	WidgetVersion string `env:"MONETBIL_WIDGET_VERSION,default=v2.1"`
	CheckURL      string `env:"MONETBIL_CHECK_URL,default=https://api.monetbil.com/payment/v1/checkPayment"`
	Currency      string `env:"MONETBIL_CURRENCY,default=XAF"`
	Country       string `env:"MONETBIL_COUNTRY,default=CM"`
	Locale        string `env:"MONETBIL_LOCALE,default=fr"`
	LogoURL       string `env:"MONETBIL_LOGO_URL"`
}

type awsS3 struct {
	S3Region     string `env:"S3_REGION,required"`
	S3Bucket     string `env:"S3_BUCKET,required"`
	S3Url        string `env:"S3_URL,required"`
	S3PathTicket string `env:"S3_PATH_TICKET,default=ticket"`
	S3PathSound  string `env:"S3_PATH_SOUND,default=sound"`
}

type mail struct {
	PaymentSuccess mailPaymentSuccess
	NameFrom       string `env:"MAIL_NAME_FROM"`
	EmailFrom      string `env:"MAIL_EMAIL_FROM"`
	Folder         string `env:"MAIL_FOLDER"`
	Path           string `env:"MAIL_PATH"`
}

type mailPaymentSuccess struct {
	Subject  string `env:"MAIL_PAYMENT_SUCCESS_SUBJECT"`
	Template string `env:"MAIL_PAYMENT_SUCCESS_TEMPLATE"`
	FileName string `env:"MAIL_PAYMENT_SUCCESS_FILENAME"`
}

type AppContext struct {
	Config   Configuration
	SQLConn  *sqlx.DB
	DB       db.Storage
	AwsSMTP  *gomail.Dialer
	AwsS3    *session.Session
	Monetbil *monetbil.Client
}

func CreateConnectionSQL(conf database) (*sqlx.DB, error) {
	conn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", conf.User, conf.Password, conf.URL, strconv.Itoa(conf.Port), conf.Name)
	connection, err := sqlx.Connect("mysql", conn)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func CreateNewConnectionSMTP(conf awsSMTP) *gomail.Dialer {
	conn := gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUser, conf.SMTPPassword)
	return conn
}

func CreateMonetbilIntegration(conf monetbilConf) *monetbil.Client {
	return monetbil.NewClient(monetbil.Config{
		ServiceKey:    conf.ServiceKey,
		ServiceSecret: conf.ServiceSecret,
		WidgetBaseURL: conf.WidgetBaseURL,
		WidgetVersion: conf.WidgetVersion,
		CheckURL:      conf.CheckURL,
		Currency:      conf.Currency,
		Country:       conf.Country,
		Locale:        conf.Locale,
		LogoURL:       conf.LogoURL,
	})
}

func CreateNewSessionS3(conf awsS3) (*session.Session, error) {
	s, err := session.NewSession(&aws.Config{Region: aws.String(conf.S3Region)})
	return s, err
}

var logger *log.Entry

func SetLogger(newLogger *log.Entry) {
	logger = newLogger
}

func GetLogger() *log.Entry {
	return logger
}
